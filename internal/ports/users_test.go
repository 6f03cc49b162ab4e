package ports_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Amund211/disparos/internal/domain"
	"github.com/Amund211/disparos/internal/domaintest"
	"github.com/Amund211/disparos/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiddlewares(t *testing.T) ports.Middlewares {
	t.Helper()

	allowedOrigins, err := ports.NewAllowedOrigins("https://painel.example.com")
	require.NoError(t, err)

	return ports.Middlewares{
		AllowedOrigins:  allowedOrigins,
		IsAuthenticated: func(r *http.Request) bool { return true },
		RootLogger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		SentryMiddleware: func(next http.HandlerFunc) http.HandlerFunc {
			return next
		},
	}
}

func serve(handler http.HandlerFunc, pattern string, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	t.Parallel()

	middlewares := newMiddlewares(t)
	middlewares.IsAuthenticated = func(r *http.Request) bool { return false }

	called := false
	getStats := func(ctx context.Context) (domain.UserStats, error) {
		called = true
		return domain.UserStats{}, nil
	}

	w := serve(ports.MakeGetStatsHandler(getStats, middlewares), "GET /users/stats", httptest.NewRequest(http.MethodGet, "/users/stats", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.False(t, called)
}

func TestListUsersHandler(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	birth := time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC)

	t.Run("filters and pagination", func(t *testing.T) {
		t.Parallel()

		var gotFilter domain.UserFilter
		var gotPagination domain.UserPagination
		listUsers := func(ctx context.Context, filter domain.UserFilter, pagination domain.UserPagination) (domain.UserPage, error) {
			gotFilter = filter
			gotPagination = pagination
			return domain.UserPage{
				Users: []domain.User{
					domaintest.NewUserBuilder("joao@x.com", created).
						WithName("João").
						WithBirthDate(birth).
						WithNewSignup(true).
						WithTotalValue("0").
						Build(),
				},
				Total:      21,
				Page:       2,
				TotalPages: 2,
			}, nil
		}

		req := httptest.NewRequest(http.MethodGet, "/users?name=jo&is_new_signup=true&birth_date_from=1990-01-01&page=2&limit=20&order_by=name&order_direction=asc", nil)
		w := serve(ports.MakeListUsersHandler(listUsers, time.UTC, newMiddlewares(t)), "GET /users", req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "jo", gotFilter.Name)
		require.True(t, *gotFilter.IsNewSignup)
		require.Equal(t, time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), *gotFilter.BirthDateFrom)
		require.Nil(t, gotFilter.FirstDepositDone)
		require.Equal(t, domain.UserPagination{Page: 2, Limit: 20, OrderBy: domain.OrderByName, Descending: false}, gotPagination)

		require.JSONEq(t, `{
			"users": [{
				"email": "joao@x.com",
				"name": "João",
				"phone": null,
				"birth_date": "1990-05-20",
				"first_deposit_done": null,
				"is_new_signup": true,
				"total_value": "0",
				"last_deposit_at": null,
				"last_sent_24h": null,
				"last_sent_30d": null,
				"last_sent_45d": null,
				"last_birthday_sent_year": null,
				"pix_generated_at": null,
				"created_at": "2024-03-01T12:00:00Z"
			}],
			"total": 21,
			"page": 2,
			"totalPages": 2
		}`, w.Body.String())
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		var gotPagination domain.UserPagination
		listUsers := func(ctx context.Context, filter domain.UserFilter, pagination domain.UserPagination) (domain.UserPage, error) {
			gotPagination = pagination
			return domain.UserPage{Users: []domain.User{}, Page: 1}, nil
		}

		w := serve(ports.MakeListUsersHandler(listUsers, time.UTC, newMiddlewares(t)), "GET /users", httptest.NewRequest(http.MethodGet, "/users", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, domain.DefaultUserPagination(), gotPagination)
		require.JSONEq(t, `{"users":[],"total":0,"page":1,"totalPages":0}`, w.Body.String())
	})

	for _, query := range []string{
		"order_by=password",
		"order_direction=sideways",
		"is_new_signup=maybe",
		"page=0",
		"limit=abc",
		"created_at_from=yesterday",
	} {
		t.Run("invalid "+query, func(t *testing.T) {
			t.Parallel()

			listUsers := func(ctx context.Context, filter domain.UserFilter, pagination domain.UserPagination) (domain.UserPage, error) {
				t.Fatal("should not be called")
				return domain.UserPage{}, nil
			}

			w := serve(ports.MakeListUsersHandler(listUsers, time.UTC, newMiddlewares(t)), "GET /users", httptest.NewRequest(http.MethodGet, "/users?"+query, nil))
			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateUserHandler(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	makeRequest := func(body string) *http.Request {
		return httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	}

	t.Run("created", func(t *testing.T) {
		t.Parallel()

		var got domain.NewUser
		createUser := func(ctx context.Context, user domain.NewUser) (domain.User, error) {
			got = user
			return domaintest.NewUserBuilder(user.Email, created).WithName(*user.Name).WithTotalValue("0").Build(), nil
		}

		w := serve(ports.MakeCreateUserHandler(createUser, newMiddlewares(t)), "POST /users", makeRequest(`{"email":"joao@x.com","name":"João","birth_date":"1990-05-20"}`))

		require.Equal(t, http.StatusCreated, w.Code)
		require.Equal(t, "joao@x.com", got.Email)
		require.Equal(t, time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC), *got.BirthDate)
		require.Contains(t, w.Body.String(), `"email":"joao@x.com"`)
	})

	cases := []struct {
		name   string
		err    error
		status int
		cause  string
	}{
		{"missing email", domain.ErrMissingEmail, http.StatusBadRequest, "Email é obrigatório"},
		{"duplicate", domain.ErrUserAlreadyExists, http.StatusConflict, "Usuário com este email já existe"},
		{"internal", assert.AnError, http.StatusInternalServerError, "Erro interno do servidor"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			createUser := func(ctx context.Context, user domain.NewUser) (domain.User, error) {
				return domain.User{}, c.err
			}

			w := serve(ports.MakeCreateUserHandler(createUser, newMiddlewares(t)), "POST /users", makeRequest(`{"email":"joao@x.com"}`))
			require.Equal(t, c.status, w.Code)
			require.JSONEq(t, fmt.Sprintf(`{"success":false,"cause":%q}`, c.cause), w.Body.String())
		})
	}

	t.Run("invalid birth date", func(t *testing.T) {
		t.Parallel()

		createUser := func(ctx context.Context, user domain.NewUser) (domain.User, error) {
			t.Fatal("should not be called")
			return domain.User{}, nil
		}

		w := serve(ports.MakeCreateUserHandler(createUser, newMiddlewares(t)), "POST /users", makeRequest(`{"email":"joao@x.com","birth_date":"20/05/1990"}`))
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		createUser := func(ctx context.Context, user domain.NewUser) (domain.User, error) {
			t.Fatal("should not be called")
			return domain.User{}, nil
		}

		w := serve(ports.MakeCreateUserHandler(createUser, newMiddlewares(t)), "POST /users", makeRequest(`not json`))
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUserByEmailHandlers(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("get", func(t *testing.T) {
		t.Parallel()

		getUser := func(ctx context.Context, email string) (domain.User, error) {
			require.Equal(t, "joao@x.com", email)
			return domaintest.NewUserBuilder(email, created).Build(), nil
		}

		w := serve(ports.MakeGetUserHandler(getUser, newMiddlewares(t)), "GET /users/{email}", httptest.NewRequest(http.MethodGet, "/users/joao@x.com", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), `"email":"joao@x.com"`)
	})

	t.Run("get missing", func(t *testing.T) {
		t.Parallel()

		getUser := func(ctx context.Context, email string) (domain.User, error) {
			return domain.User{}, domain.ErrUserNotFound
		}

		w := serve(ports.MakeGetUserHandler(getUser, newMiddlewares(t)), "GET /users/{email}", httptest.NewRequest(http.MethodGet, "/users/ghost@x.com", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
		require.JSONEq(t, `{"success":false,"cause":"Usuário não encontrado"}`, w.Body.String())
	})

	t.Run("update", func(t *testing.T) {
		t.Parallel()

		var got domain.UserUpdate
		updateUser := func(ctx context.Context, email string, update domain.UserUpdate) (domain.User, error) {
			require.Equal(t, "joao@x.com", email)
			got = update
			return domaintest.NewUserBuilder(email, created).WithPhone(*update.Phone).Build(), nil
		}

		req := httptest.NewRequest(http.MethodPut, "/users/joao@x.com", strings.NewReader(`{"phone":"+5511988887777","first_deposit_done":true}`))
		w := serve(ports.MakeUpdateUserHandler(updateUser, newMiddlewares(t)), "PUT /users/{email}", req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "+5511988887777", *got.Phone)
		require.True(t, *got.FirstDepositDone)
		require.Nil(t, got.Name)
	})

	t.Run("empty update", func(t *testing.T) {
		t.Parallel()

		updateUser := func(ctx context.Context, email string, update domain.UserUpdate) (domain.User, error) {
			return domain.User{}, domain.ErrEmptyUpdate
		}

		req := httptest.NewRequest(http.MethodPut, "/users/joao@x.com", strings.NewReader(`{}`))
		w := serve(ports.MakeUpdateUserHandler(updateUser, newMiddlewares(t)), "PUT /users/{email}", req)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.JSONEq(t, `{"success":false,"cause":"Nenhum campo para atualizar"}`, w.Body.String())
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		deleteUser := func(ctx context.Context, email string) error {
			require.Equal(t, "joao@x.com", email)
			return nil
		}

		w := serve(ports.MakeDeleteUserHandler(deleteUser, newMiddlewares(t)), "DELETE /users/{email}", httptest.NewRequest(http.MethodDelete, "/users/joao@x.com", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"message":"Usuário deletado com sucesso"}`, w.Body.String())
	})

	t.Run("delete missing", func(t *testing.T) {
		t.Parallel()

		deleteUser := func(ctx context.Context, email string) error {
			return domain.ErrUserNotFound
		}

		w := serve(ports.MakeDeleteUserHandler(deleteUser, newMiddlewares(t)), "DELETE /users/{email}", httptest.NewRequest(http.MethodDelete, "/users/ghost@x.com", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListUsersWithoutDepositHandler(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("default limit", func(t *testing.T) {
		t.Parallel()

		var gotLimit int
		list := func(ctx context.Context, limit int) ([]domain.User, error) {
			gotLimit = limit
			return []domain.User{}, nil
		}

		w := serve(ports.MakeListUsersWithoutDepositHandler(list, newMiddlewares(t)), "GET /users/without-deposit", httptest.NewRequest(http.MethodGet, "/users/without-deposit", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, 200, gotLimit)
		require.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("users keep their deposit flag", func(t *testing.T) {
		t.Parallel()

		list := func(ctx context.Context, limit int) ([]domain.User, error) {
			require.Equal(t, 5, limit)
			return []domain.User{
				domaintest.NewUserBuilder("pedro@x.com", created).WithFirstDepositDone(false).Build(),
				domaintest.NewUserBuilder("ana@x.com", created).Build(),
			}, nil
		}

		w := serve(ports.MakeListUsersWithoutDepositHandler(list, newMiddlewares(t)), "GET /users/without-deposit", httptest.NewRequest(http.MethodGet, "/users/without-deposit?limit=5", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var body []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body, 2)
		require.Equal(t, "pedro@x.com", body[0]["email"])
		require.Equal(t, false, body[0]["first_deposit_done"])
		require.Equal(t, "ana@x.com", body[1]["email"])
		require.Nil(t, body[1]["first_deposit_done"])
	})
}
