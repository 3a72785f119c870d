package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"restaurant-admin/apperrors"
	"restaurant-admin/database"
	"restaurant-admin/helpers"
	"restaurant-admin/logger"
	"restaurant-admin/models"
)

const passwordCost = 12

// SessionVerifier signs staff in and re-checks their sessions against the staff collection.
type SessionVerifier struct {
	store   database.Store
	log     *logger.Logger
	timeout time.Duration
}

func NewSessionVerifier(store database.Store, log *logger.Logger, opTimeout time.Duration) *SessionVerifier {
	return &SessionVerifier{store: store, log: log.WithComponent("sessions"), timeout: opTimeout}
}

// HashPassword returns the bcrypt hash stored on staff documents.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Login checks email and password and returns the staff record on success.
// Wrong email and wrong password fail the same way.
func (v *SessionVerifier) Login(ctx context.Context, email, password string) (models.Staff, error) {
	const op = "login"
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return models.Staff{}, apperrors.Validation(op, "Email and password are required.")
	}
	if err := database.EnsureReady(v.store, op); err != nil {
		return models.Staff{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	docs, err := v.store.FindBy(ctx, database.StaffCollection, "email", email)
	if err != nil {
		return models.Staff{}, apperrors.Store(op, err)
	}
	if len(docs) == 0 {
		return models.Staff{}, apperrors.Unauthorized(op, "email or password is incorrect")
	}
	staff := NormalizeStaff(docs[0])
	if err := bcrypt.CompareHashAndPassword([]byte(staff.Password), []byte(password)); err != nil {
		return models.Staff{}, apperrors.Unauthorized(op, "email or password is incorrect")
	}
	if staff.Status != models.StaffStatusActive {
		return models.Staff{}, apperrors.Unauthorized(op, "this account has been deactivated")
	}
	v.log.Info("staff signed in", "staff_id", staff.ID, "role", staff.Role)
	return staff, nil
}

// Verify confirms a session still belongs to an active staff member and refreshes its role.
func (v *SessionVerifier) Verify(ctx context.Context, session models.Session) (models.Session, error) {
	const op = "verify session"
	if err := database.EnsureReady(v.store, op); err != nil {
		return models.Session{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	doc, err := v.store.Get(ctx, database.StaffCollection, session.StaffID)
	if errors.Is(err, database.ErrNoDocument) {
		return models.Session{}, apperrors.Unauthorized(op, "this account no longer exists")
	}
	if err != nil {
		return models.Session{}, apperrors.Store(op, err)
	}
	staff := NormalizeStaff(doc)
	if staff.Status != models.StaffStatusActive {
		return models.Session{}, apperrors.Unauthorized(op, "this account has been deactivated")
	}
	if !strings.EqualFold(staff.Email, session.Email) {
		return models.Session{}, apperrors.Unauthorized(op, "the session does not match this account")
	}
	if staff.Role != "" {
		session.Role = staff.Role
	}
	return session, nil
}

// ListStaff returns every staff account, without password hashes.
func (v *SessionVerifier) ListStaff(ctx context.Context) ([]models.Staff, error) {
	const op = "list staff"
	if err := database.EnsureReady(v.store, op); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	docs, err := v.store.List(ctx, database.StaffCollection)
	if err != nil {
		return nil, apperrors.Store(op, err)
	}
	staff := make([]models.Staff, 0, len(docs))
	for _, doc := range docs {
		s := NormalizeStaff(doc)
		s.Password = ""
		staff = append(staff, s)
	}
	helpers.SortByName(staff, func(s models.Staff) string { return s.DisplayName() })
	return staff, nil
}

// SessionFor builds the token payload for a signed-in staff member.
func SessionFor(staff models.Staff) models.Session {
	return models.Session{StaffID: staff.ID, Email: staff.Email, Name: staff.DisplayName(), Role: staff.Role}
}

// NormalizeStaff reads a staff document. Status defaults to active for records
// created before the field existed.
func NormalizeStaff(doc database.Document) models.Staff {
	status := strings.ToLower(helpers.StringField(doc.Data, "status"))
	if status == "" {
		status = models.StaffStatusActive
	}
	return models.Staff{
		ID:         doc.ID,
		Email:      strings.ToLower(helpers.StringField(doc.Data, "email")),
		Password:   helpers.StringField(doc.Data, "password"),
		First_name: helpers.StringField(doc.Data, "firstName", "first_name"),
		Last_name:  helpers.StringField(doc.Data, "lastName", "last_name"),
		Suffix:     helpers.StringField(doc.Data, "suffix"),
		Role:       canonicalRole(helpers.StringField(doc.Data, "role")),
		Status:     status,
		Created_at: helpers.NormalizeTimestamp(doc.Data["createdAt"]),
	}
}

func canonicalRole(raw string) string {
	for _, role := range []string{models.RoleOwner, models.RoleAdmin, models.RoleDriver} {
		if strings.EqualFold(raw, role) {
			return role
		}
	}
	return raw
}
