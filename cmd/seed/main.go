package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/Amund211/disparos/internal/adapters/database"
	"github.com/Amund211/disparos/internal/adapters/userrepository"
	"github.com/Amund211/disparos/internal/app"
	"github.com/Amund211/disparos/internal/config"
	"github.com/Amund211/disparos/internal/domain"
)

type sampleUser struct {
	name         string
	email        string
	phone        string
	birthDate    string
	firstDeposit bool
	totalValue   string
}

var sampleUsers = []sampleUser{
	{"João Silva", "joao@email.com", "+5511999999999", "1990-01-15", true, "250.00"},
	{"Maria Santos", "maria@email.com", "+5511888888888", "1985-06-22", true, "480.50"},
	{"Pedro Costa", "pedro@email.com", "+5511777777777", "1992-03-10", false, "0"},
	{"Ana Oliveira", "ana@email.com", "+5511666666666", "1988-11-05", true, "120.00"},
	{"Carlos Ferreira", "carlos@email.com", "+5511555555555", "1995-08-30", false, "0"},
	{"Lucia Rodrigues", "lucia@email.com", "+5511444444444", "1987-12-12", true, "1000.00"},
	{"Ricardo Alves", "ricardo@email.com", "+5511333333333", "1991-04-18", false, "0"},
	{"Fernanda Lima", "fernanda@email.com", "+5511222222222", "1993-07-25", true, "75.25"},
	{"Roberto Nunes", "roberto@email.com", "+5511111111111", "1989-02-14", false, "0"},
	{"Patricia Dias", "patricia@email.com", "+5511000000000", "1994-09-03", true, "310.90"},
}

func (s sampleUser) toNewUser() (domain.NewUser, error) {
	birthDate, err := time.Parse(time.DateOnly, s.birthDate)
	if err != nil {
		return domain.NewUser{}, err
	}
	isNewSignup := !s.firstDeposit
	return domain.NewUser{
		Email:            s.email,
		Name:             &s.name,
		Phone:            &s.phone,
		BirthDate:        &birthDate,
		FirstDepositDone: &s.firstDeposit,
		IsNewSignup:      &isNewSignup,
		TotalValue:       &s.totalValue,
	}, nil
}

func main() {
	envFile := flag.String("env-file", ".env", "dotenv file to read before the environment")
	migrate := flag.Bool("migrate", true, "run database migrations before seeding")
	flag.Parse()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("component", "seed")

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		fail("Failed to load dotenv file", "error", err.Error())
	}
	conf, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}

	db, err := database.NewDatabaseFromConfig(conf)
	if err != nil {
		fail("Failed to connect to database", "error", err.Error())
	}
	defer db.Close()

	schema := database.GetSchemaName(!conf.IsProduction())
	if *migrate {
		if err := database.NewDatabaseMigrator(db, logger).Migrate(ctx, schema); err != nil {
			fail("Failed to migrate database", "error", err.Error())
		}
	}

	createUser := app.BuildCreateUser(userrepository.NewPostgres(db, schema, time.UTC, time.Now))

	created := 0
	for _, sample := range sampleUsers {
		newUser, err := sample.toNewUser()
		if err != nil {
			fail("Invalid sample user", "email", sample.email, "error", err.Error())
		}

		_, err = createUser(ctx, newUser)
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			logger.Info("User already exists, skipping", "email", sample.email)
			continue
		}
		if err != nil {
			fail("Failed to create user", "email", sample.email, "error", err.Error())
		}
		created++
	}

	logger.Info("Seed complete", "created", created, "total", len(sampleUsers), "schema", schema)
}
