package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vientianelabs/khumsue-backend/pkg/db/models"
	"github.com/vientianelabs/khumsue-backend/pkg/enums"
	pkgerrors "github.com/vientianelabs/khumsue-backend/pkg/errors"
	"github.com/vientianelabs/khumsue-backend/pkg/logger"
	"github.com/vientianelabs/khumsue-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// paymentCounter advances the campaign ledger once a payment is verified.
type paymentCounter interface {
	ConfirmPayment(ctx context.Context, orderID uuid.UUID) (*models.Campaign, error)
}

// Service runs the payment verification workflow: buyers submit proofs,
// admins approve or reject them, and approvals feed the campaign counter.
type Service struct {
	repo    Repository
	tx      txRunner
	counter paymentCounter
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(repo Repository, tx txRunner, counter paymentCounter, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("payments: repository is required")
	}
	if tx == nil {
		return nil, errors.New("payments: transaction runner is required")
	}
	if counter == nil {
		return nil, errors.New("payments: payment counter is required")
	}
	if logg == nil {
		return nil, errors.New("payments: logger is required")
	}
	return &Service{
		repo:    repo,
		tx:      tx,
		counter: counter,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// SubmitProofInput carries one proof-of-payment submission.
type SubmitProofInput struct {
	OrderID       uuid.UUID
	ProofImageURL string
	Amount        int64
	PaymentMethod enums.PaymentMethod
}

// SubmitProof records a proof and moves the order to pending_verify. A buyer
// whose previous proof was rejected may submit again; once a proof is under
// review or verified, further submissions are refused.
func (s *Service) SubmitProof(ctx context.Context, in SubmitProofInput) (*models.PaymentProof, error) {
	var proof *models.PaymentProof
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrderByID(ctx, in.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}
		if !order.PaymentStatus.AwaitingProof() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order not awaiting proof")
		}

		proof, err = repo.CreateProof(ctx, &models.PaymentProof{
			ID:            uuid.New(),
			OrderID:       order.ID,
			MemberID:      order.MemberID,
			PaymentMethod: in.PaymentMethod,
			ProofImageURL: in.ProofImageURL,
			Amount:        in.Amount,
			Status:        enums.ProofStatusPending,
		})
		if err != nil {
			return err
		}

		return repo.UpdateOrder(ctx, order.ID, map[string]any{
			"payment_status":    enums.PaymentStatusPendingVerify,
			"payment_proof_url": in.ProofImageURL,
		})
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithOrderID(ctx, in.OrderID.String()), "payment proof submitted")
	return proof, nil
}

// Approve verifies the order's latest proof and then advances the campaign
// counter. Verification and counting run in separate transactions: once the
// admin's verdict is committed it stands, even if the campaign has since
// closed. A replayed approval hits the counted_at guard and is a no-op.
func (s *Service) Approve(ctx context.Context, orderID, adminID uuid.UUID) error {
	now := s.now()

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrderByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}
		if order.PaymentStatus != enums.PaymentStatusPendingVerify {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting verification")
		}

		proof, err := repo.FindLatestProofByOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no proof to verify")
			}
			return err
		}

		if err := repo.UpdateProof(ctx, proof.ID, map[string]any{
			"status":      enums.ProofStatusVerified,
			"verified_by": adminID,
			"verified_at": now,
		}); err != nil {
			return err
		}
		return repo.UpdateOrder(ctx, orderID, map[string]any{
			"payment_status": enums.PaymentStatusVerified,
		})
	})
	if err != nil {
		return err
	}

	ctx = s.logg.WithOrderID(ctx, orderID.String())
	if _, err := s.counter.ConfirmPayment(ctx, orderID); err != nil {
		typed := pkgerrors.As(err)
		if typed != nil && typed.Code() == pkgerrors.CodeConflict {
			// Already counted: the verification was a replay after a crash
			// between the two transactions. Nothing left to do.
			s.logg.Warn(ctx, "order already counted, skipping")
			return nil
		}
		return err
	}
	s.logg.Info(s.logg.WithAdminID(ctx, adminID.String()), "payment approved")
	return nil
}

// Reject turns down the order's latest proof. The buyer can submit a new one.
func (s *Service) Reject(ctx context.Context, orderID, adminID uuid.UUID, reason string) error {
	now := s.now()

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrderByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}
		if order.PaymentStatus != enums.PaymentStatusPendingVerify {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting verification")
		}

		proof, err := repo.FindLatestProofByOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no proof to verify")
			}
			return err
		}

		if err := repo.UpdateProof(ctx, proof.ID, map[string]any{
			"status":      enums.ProofStatusRejected,
			"admin_note":  reason,
			"verified_by": adminID,
			"verified_at": now,
		}); err != nil {
			return err
		}
		return repo.UpdateOrder(ctx, orderID, map[string]any{
			"payment_status": enums.PaymentStatusRejected,
			"notes":          reason,
		})
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithAdminID(s.logg.WithOrderID(ctx, orderID.String()), adminID.String()), "payment rejected")
	return nil
}

// ListPending returns proofs awaiting verification, oldest first.
func (s *Service) ListPending(ctx context.Context, params pagination.Params) ([]models.PaymentProof, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	proofs, next, err := s.repo.ListPendingProofs(ctx, params.Limit, cursor)
	if err != nil {
		return nil, "", err
	}

	var nextCursor string
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return proofs, nextCursor, nil
}

// RecordGatewayResult ingests a verified gateway verdict. A success verdict
// files a gateway-sourced proof and routes the order into the normal
// verification queue; a failure verdict only stamps the transaction ref.
func (s *Service) RecordGatewayResult(ctx context.Context, orderID uuid.UUID, transactionID string, amount int64, success bool) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrderByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}

		if !success {
			return repo.UpdateOrder(ctx, order.ID, map[string]any{
				"payment_ref": transactionID,
			})
		}

		if !order.PaymentStatus.AwaitingProof() {
			// Gateway retried a verdict we already ingested.
			return nil
		}

		proofURL := "onepay://" + transactionID
		if _, err := repo.CreateProof(ctx, &models.PaymentProof{
			ID:            uuid.New(),
			OrderID:       order.ID,
			MemberID:      order.MemberID,
			PaymentMethod: enums.PaymentMethodBCEL,
			ProofImageURL: proofURL,
			Amount:        amount,
			Status:        enums.ProofStatusPending,
		}); err != nil {
			return err
		}
		return repo.UpdateOrder(ctx, order.ID, map[string]any{
			"payment_status":    enums.PaymentStatusPendingVerify,
			"payment_proof_url": proofURL,
			"payment_ref":       transactionID,
		})
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":       orderID.String(),
		"transaction_id": transactionID,
		"success":        success,
	}), "gateway verdict recorded")
	return nil
}
