package services

import (
	"context"
	"errors"
	"time"

	"github.com/terraincognita07/tandem/internal/logging"
	"github.com/terraincognita07/tandem/internal/models"
	"github.com/terraincognita07/tandem/internal/security"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const inviteCodeAttempts = 10

type CoupleRepository interface {
	FindByMember(ctx context.Context, userID uint) (models.Couple, bool, error)
	FindPendingByInviteCode(ctx context.Context, code string) (models.Couple, bool, error)
	InviteCodeExists(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, couple *models.Couple) error
	Pair(ctx context.Context, coupleID uint, userID uint, connectedAt time.Time) (bool, error)
	Delete(ctx context.Context, coupleID uint) error
	DeletePendingByOwner(ctx context.Context, userID uint) error
}

type CoupleUserLookup interface {
	FindByID(ctx context.Context, userID uint) (models.User, error)
}

type PairingNotifier interface {
	PartnerConnected(ctx context.Context, recipientID uint, partner models.User) error
	PartnerDisconnected(ctx context.Context, recipientID uint, partner models.User) error
}

// Pairing is the paired couple a user belongs to, seen from that user.
type Pairing struct {
	CoupleID  uint
	PartnerID uint
}

type CoupleStatus struct {
	Paired      bool
	CoupleID    uint
	InviteCode  string
	Partner     *models.User
	ConnectedAt *time.Time
}

type CoupleService struct {
	couples      CoupleRepository
	users        CoupleUserLookup
	notifier     PairingNotifier
	logger       *zap.Logger
	now          func() time.Time
	generateCode func() (string, error)
}

func NewCoupleService(couples CoupleRepository, users CoupleUserLookup, notifier PairingNotifier, logger *zap.Logger) *CoupleService {
	return &CoupleService{
		couples:      couples,
		users:        users,
		notifier:     notifier,
		logger:       logging.OrNop(logger).Named("couples"),
		now:          time.Now,
		generateCode: security.NewInviteCode,
	}
}

// Resolve reports the caller's pairing. Pending invites do not count.
func (service *CoupleService) Resolve(ctx context.Context, userID uint) (Pairing, bool, error) {
	couple, found, err := service.couples.FindByMember(ctx, userID)
	if err != nil || !found {
		return Pairing{}, false, err
	}
	partnerID, paired := couple.PartnerOf(userID)
	if !paired {
		return Pairing{}, false, nil
	}
	return Pairing{CoupleID: couple.ID, PartnerID: partnerID}, true, nil
}

func (service *CoupleService) ResolvePartner(ctx context.Context, userID uint) (uint, bool, error) {
	pairing, paired, err := service.Resolve(ctx, userID)
	return pairing.PartnerID, paired, err
}

func (service *CoupleService) ResolveCoupleID(ctx context.Context, userID uint) (uint, bool, error) {
	pairing, paired, err := service.Resolve(ctx, userID)
	return pairing.CoupleID, paired, err
}

func (service *CoupleService) RequirePairing(ctx context.Context, userID uint) (Pairing, error) {
	pairing, paired, err := service.Resolve(ctx, userID)
	if err != nil {
		return Pairing{}, err
	}
	if !paired {
		return Pairing{}, ErrNotPaired
	}
	return pairing, nil
}

func (service *CoupleService) Status(ctx context.Context, userID uint) (CoupleStatus, error) {
	couple, found, err := service.couples.FindByMember(ctx, userID)
	if err != nil {
		return CoupleStatus{}, err
	}
	if !found {
		return CoupleStatus{}, nil
	}

	partnerID, paired := couple.PartnerOf(userID)
	if !paired {
		return CoupleStatus{CoupleID: couple.ID, InviteCode: couple.InviteCode}, nil
	}

	partner, err := service.users.FindByID(ctx, partnerID)
	if err != nil {
		return CoupleStatus{}, translateLookupError(err)
	}
	return CoupleStatus{
		Paired:      true,
		CoupleID:    couple.ID,
		Partner:     &partner,
		ConnectedAt: couple.ConnectedAt,
	}, nil
}

// CreateInvite returns the caller's pending invite code, creating one if needed.
func (service *CoupleService) CreateInvite(ctx context.Context, userID uint) (string, error) {
	couple, found, err := service.couples.FindByMember(ctx, userID)
	if err != nil {
		return "", err
	}
	if found {
		if couple.IsPaired() {
			return "", ErrAlreadyPaired
		}
		return couple.InviteCode, nil
	}

	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := service.generateCode()
		if err != nil {
			return "", err
		}
		taken, err := service.couples.InviteCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if taken {
			continue
		}

		pending := models.Couple{
			User1ID:    userID,
			InviteCode: code,
			CreatedAt:  service.now().UTC(),
		}
		if err := service.couples.Create(ctx, &pending); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return "", err
		}
		return code, nil
	}
	return "", ErrConflict
}

func (service *CoupleService) JoinWithCode(ctx context.Context, userID uint, rawCode string) (Pairing, error) {
	code := security.NormalizeInviteCode(rawCode)
	if !security.IsValidInviteCode(code) {
		return Pairing{}, invalidField("invite_code", "must be 6 letters or digits")
	}

	if _, paired, err := service.Resolve(ctx, userID); err != nil {
		return Pairing{}, err
	} else if paired {
		return Pairing{}, ErrAlreadyPaired
	}

	couple, found, err := service.couples.FindPendingByInviteCode(ctx, code)
	if err != nil {
		return Pairing{}, err
	}
	if !found {
		return Pairing{}, ErrNotFound
	}
	if couple.User1ID == userID {
		return Pairing{}, invalidField("invite_code", "cannot use your own invite code")
	}

	if err := service.couples.DeletePendingByOwner(ctx, userID); err != nil {
		return Pairing{}, err
	}
	claimed, err := service.couples.Pair(ctx, couple.ID, userID, service.now().UTC())
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Pairing{}, ErrAlreadyPaired
	}
	if err != nil {
		return Pairing{}, err
	}
	if !claimed {
		return Pairing{}, ErrNotFound
	}

	service.announcePairing(ctx, couple.User1ID, userID)
	return Pairing{CoupleID: couple.ID, PartnerID: couple.User1ID}, nil
}

func (service *CoupleService) Disconnect(ctx context.Context, userID uint) error {
	pairing, err := service.RequirePairing(ctx, userID)
	if err != nil {
		return err
	}
	if err := service.couples.Delete(ctx, pairing.CoupleID); err != nil {
		return translateLookupError(err)
	}

	if service.notifier == nil {
		return nil
	}
	leaver, err := service.users.FindByID(ctx, userID)
	if err != nil {
		service.logger.Warn("disconnect notice skipped", zap.Uint("user_id", userID), zap.Error(err))
		return nil
	}
	if err := service.notifier.PartnerDisconnected(ctx, pairing.PartnerID, leaver); err != nil {
		service.logger.Warn("disconnect notice failed", zap.Uint("user_id", pairing.PartnerID), zap.Error(err))
	}
	return nil
}

func (service *CoupleService) announcePairing(ctx context.Context, ownerID uint, joinerID uint) {
	if service.notifier == nil {
		return
	}
	owner, err := service.users.FindByID(ctx, ownerID)
	if err != nil {
		service.logger.Warn("pairing notice skipped", zap.Uint("user_id", ownerID), zap.Error(err))
		return
	}
	joiner, err := service.users.FindByID(ctx, joinerID)
	if err != nil {
		service.logger.Warn("pairing notice skipped", zap.Uint("user_id", joinerID), zap.Error(err))
		return
	}

	if err := service.notifier.PartnerConnected(ctx, owner.ID, joiner); err != nil {
		service.logger.Warn("pairing notice failed", zap.Uint("user_id", owner.ID), zap.Error(err))
	}
	if err := service.notifier.PartnerConnected(ctx, joiner.ID, owner); err != nil {
		service.logger.Warn("pairing notice failed", zap.Uint("user_id", joiner.ID), zap.Error(err))
	}
}
