package resendrepository

import (
	"context"

	"github.com/Amund211/disparos/internal/domain"
)

type ResendRepository interface {
	StoreResendRequest(ctx context.Context, audit domain.ResendAudit) error
}
