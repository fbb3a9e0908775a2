package member

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/shepherd-app/shepherd/core"
)

var (
	// errors
	ErrNotFound           = errors.New("member not found")
	ErrEmailExists        = errors.New("a member with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidResetLink   = errors.New("this password reset link is invalid or has expired")
)

type (
	Repository interface {
		// CheckEmailUniqueness does a case-insensitive match on Member.Email, ignoring excludedMembers.
		CheckEmailUniqueness(ctx context.Context, email string, excludedMembers ...Member) error
		CreateMember(ctx context.Context, mbr Member) (Member, error)
		GetMember(ctx context.Context, id string) (Member, error)
		GetMemberByEmail(ctx context.Context, email string) (Member, error)
		// FindMembers applies AND operation on the set Filter fields.
		FindMembers(ctx context.Context, filter Filter) ([]Member, error)
		// UpdateMember replaces the stored Member with the same ID. ErrNotFound if there is none.
		UpdateMember(ctx context.Context, mbr Member) (Member, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (svc *Service) checkUniqueness(email string, exclMembers ...Member) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email, exclMembers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Register creates a Pending Member without organization. nm must have been validated.
func (svc *Service) Register(ctx context.Context, nm NewMember) (Member, error) {
	now := core.NowFunc().UTC()
	mbr := Member{
		Name:      nm.Name,
		Email:     core.CleanString(nm.Email, true /* lower */),
		Role:      RolePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := mbr.SetPassword(nm.Password); err != nil {
		return Member{}, errors.Wrap(err, "hashing password")
	}
	mbr, err := svc.repo.CreateMember(ctx, mbr)
	if err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return Member{}, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
		}
		return Member{}, errors.Wrap(err, "creating member")
	}

	if svc.mailSvc != nil {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           Addresses(mbr),
			Subject:      "Welcome!",
			TemplateName: "welcome",
			TemplateData: map[string]string{"Name": mbr.Name},
		})
	}
	return mbr, nil
}

// Authenticate returns the Member matching email and password.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (Member, error) {
	mbr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Member{}, ErrInvalidCredentials
		}
		return Member{}, err
	}
	if err := mbr.CheckPassword(pwd); err != nil {
		return Member{}, ErrInvalidCredentials
	}
	return mbr, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Member, error) {
	return svc.repo.GetMember(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Member, error) {
	return svc.repo.GetMemberByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Query(ctx context.Context, filter Filter) ([]Member, error) {
	return svc.repo.FindMembers(ctx, filter)
}

// Update applies a validated UpdateMember to the Member identified by id.
func (svc *Service) Update(ctx context.Context, id string, um UpdateMember) (Member, error) {
	mbr, err := svc.repo.GetMember(ctx, id)
	if err != nil {
		return Member{}, err
	}
	um.Apply(&mbr)
	if um.Password != "" {
		if err := mbr.SetPassword(um.Password); err != nil {
			return Member{}, errors.Wrap(err, "hashing password")
		}
	}
	return svc.Save(ctx, mbr)
}

// Save persists mbr as is, bumping UpdatedAt.
func (svc *Service) Save(ctx context.Context, mbr Member) (Member, error) {
	mbr.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateMember(ctx, mbr)
}

// SetPassword replaces the password of the Member identified by email.
func (svc *Service) SetPassword(ctx context.Context, email, pwd string) error {
	mbr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := mbr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	_, err = svc.Save(ctx, mbr)
	return err
}

// RequestPasswordReset emails a password reset link to the member registered with email.
// Unknown emails are ignored, so callers cannot probe who is registered.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	mbr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil
		}
		return err
	}
	token, err := MakeToken(mbr)
	if err != nil {
		return errors.Wrap(err, "making password reset token")
	}

	if svc.mailSvc != nil {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           Addresses(mbr),
			Subject:      "Password reset",
			TemplateName: "password_reset",
			TemplateData: map[string]string{"Name": mbr.Name, "UID": EncodeUID(mbr), "Token": token},
		})
	}
	return nil
}

// ResetPassword sets the password of the member a reset link was made for. rp must have been validated.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) (Member, error) {
	invalid := core.NewValidationError(ErrInvalidResetLink, core.FieldError{Field: "token", Error: ErrInvalidResetLink.Error()})

	id, err := decodeUID(rp.UID)
	if err != nil {
		return Member{}, invalid
	}
	mbr, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Member{}, invalid
		}
		return Member{}, err
	}
	if err := verifyToken(mbr, rp.Token); err != nil {
		return Member{}, invalid
	}

	if err := validatePassword(rp.Password, mbr.Name, mbr.Email); err != nil {
		return Member{}, err
	}
	if err := mbr.SetPassword(rp.Password); err != nil {
		return Member{}, errors.Wrap(err, "hashing password")
	}
	return svc.Save(ctx, mbr)
}

// Address returns the mail address of mbr.
func Address(mbr Member) mail.Address {
	return mail.Address{Name: mbr.Name, Address: mbr.Email}
}

// Addresses returns the mail addresses of members.
func Addresses(members ...Member) []mail.Address {
	addrs := make([]mail.Address, 0, len(members))
	for _, mbr := range members {
		addrs = append(addrs, Address(mbr))
	}
	return addrs
}
