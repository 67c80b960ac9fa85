package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"fintrack/logger"
	"fintrack/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 6
	resetCodeTTL      = 10 * time.Minute
	resetCodeCooldown = time.Minute
	maxResetAttempts  = 5
)

// AuthService 用户与认证服务
type AuthService struct {
	db     *gorm.DB
	mailer Mailer
}

// NewAuthService 创建认证服务
func NewAuthService(db *gorm.DB, mailer Mailer) *AuthService {
	return &AuthService{db: db, mailer: mailer}
}

// HashPassword bcrypt 加密密码
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword 校验密码
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkPassword(plain string) error {
	if len(plain) < minPasswordLength {
		return NewValidationError("password must be at least 6 characters")
	}
	return nil
}

// Register 注册用户，邮箱唯一
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return nil, NewValidationError("name is required")
	}
	if email == "" {
		return nil, NewValidationError("email is required")
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	taken, err := exists(ctx, s.db, &models.User{}, "email = ?", email)
	if err != nil {
		return nil, NewInternalError("failed to check email", err)
	}
	if taken {
		return nil, NewConflictError("email already registered")
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return nil, NewInternalError("failed to hash password", err)
	}

	user := models.User{Name: name, Email: email, Password: hashed}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, NewInternalError("failed to create user", err)
	}

	logger.FromContext(ctx).Info().Uint("user_id", user.ID).Msg("user registered")
	return &user, nil
}

// Authenticate 校验邮箱和密码
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewUnauthorizedError("invalid email or password")
		}
		return nil, NewInternalError("failed to load user", err)
	}
	if !VerifyPassword(password, user.Password) {
		return nil, NewUnauthorizedError("invalid email or password")
	}
	return &user, nil
}

// Profile 获取当前用户
func (s *AuthService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("user not found")
		}
		return nil, NewInternalError("failed to load user", err)
	}
	return &user, nil
}

// ProfilePatch 资料部分更新参数
type ProfilePatch struct {
	Name  *string
	Email *string
}

// UpdateProfile 更新姓名或邮箱
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, patch ProfilePatch) (*models.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, NewValidationError("name is required")
		}
		updates["name"] = name
	}
	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if email == "" {
			return nil, NewValidationError("email is required")
		}
		if email != user.Email {
			taken, err := exists(ctx, s.db, &models.User{}, "email = ? AND id <> ?", email, userID)
			if err != nil {
				return nil, NewInternalError("failed to check email", err)
			}
			if taken {
				return nil, NewConflictError("email already registered")
			}
		}
		updates["email"] = email
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, NewInternalError("failed to update profile", err)
	}
	return s.Profile(ctx, userID)
}

// ChangePassword 校验原密码后修改密码
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if !VerifyPassword(current, user.Password) {
		return NewUnauthorizedError("current password is incorrect")
	}
	if err := checkPassword(next); err != nil {
		return err
	}

	hashed, err := HashPassword(next)
	if err != nil {
		return NewInternalError("failed to hash password", err)
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password", hashed).Error; err != nil {
		return NewInternalError("failed to update password", err)
	}

	logger.FromContext(ctx).Info().Uint("user_id", userID).Msg("password changed")
	return nil
}

// DeleteUser 删除用户及其全部数据
func (s *AuthService) DeleteUser(ctx context.Context, userID uint) error {
	if _, err := s.Profile(ctx, userID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := []interface{}{
			&models.Transaction{},
			&models.Subcategory{},
			&models.Category{},
			&models.Account{},
			&models.PasswordReset{},
		}
		for _, model := range owned {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.User{}, userID).Error
	})
	if err != nil {
		return NewInternalError("failed to delete user", err)
	}

	logger.FromContext(ctx).Info().Uint("user_id", userID).Msg("user deleted")
	return nil
}

// RequestPasswordReset 生成验证码并发送邮件
// 邮箱未注册时静默返回，避免暴露账号是否存在
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return NewInternalError("failed to load user", err)
	}

	var latest models.PasswordReset
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND used = ? AND expires_at > ?", user.ID, false, time.Now()).
		Order("created_at DESC").
		First(&latest).Error
	switch {
	case err == nil:
		if time.Since(latest.CreatedAt) < resetCodeCooldown {
			return NewTooManyRequestsError("too many requests, try again later")
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return NewInternalError("failed to load reset code", err)
	}

	// 旧验证码全部作废
	if err := s.db.WithContext(ctx).Model(&models.PasswordReset{}).
		Where("user_id = ? AND used = ?", user.ID, false).
		Update("used", true).Error; err != nil {
		return NewInternalError("failed to invalidate reset codes", err)
	}

	code, err := models.GenerateResetCode()
	if err != nil {
		return NewInternalError("failed to generate reset code", err)
	}

	reset := models.PasswordReset{
		UserID:    user.ID,
		Code:      code,
		Email:     email,
		ExpiresAt: time.Now().Add(resetCodeTTL),
	}
	if err := s.db.WithContext(ctx).Create(&reset).Error; err != nil {
		return NewInternalError("failed to save reset code", err)
	}

	if err := s.mailer.SendPasswordResetCode(email, user.Name, code); err != nil {
		if delErr := s.db.WithContext(ctx).Delete(&reset).Error; delErr != nil {
			logger.FromContext(ctx).Error().Err(delErr).
				Uint("user_id", user.ID).
				Uint("reset_id", reset.ID).
				Msg("failed to remove unsent reset code")
		}
		return NewInternalError("failed to send reset email", err)
	}

	logger.FromContext(ctx).Info().Uint("user_id", user.ID).Msg("password reset code sent")
	return nil
}

// ResetPassword 使用验证码重置密码
func (s *AuthService) ResetPassword(ctx context.Context, email, code, next string) error {
	email = normalizeEmail(email)
	if err := checkPassword(next); err != nil {
		return err
	}

	// 只认该邮箱最新一条验证码
	var reset models.PasswordReset
	if err := s.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC, id DESC").
		First(&reset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewValidationError("invalid reset code")
		}
		return NewInternalError("failed to load reset code", err)
	}
	if subtle.ConstantTimeCompare([]byte(reset.Code), []byte(code)) != 1 {
		if !reset.IsValid() {
			return NewValidationError("invalid reset code")
		}
		return s.recordFailedAttempt(ctx, &reset)
	}
	if reset.Used {
		return NewValidationError("reset code already used")
	}
	if reset.IsExpired() {
		return NewValidationError("reset code expired")
	}

	hashed, err := HashPassword(next)
	if err != nil {
		return NewInternalError("failed to hash password", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", reset.UserID).Update("password", hashed).Error; err != nil {
			return err
		}
		return tx.Model(&reset).Update("used", true).Error
	})
	if err != nil {
		return NewInternalError("failed to reset password", err)
	}

	logger.FromContext(ctx).Info().Uint("user_id", reset.UserID).Msg("password reset")
	return nil
}

// recordFailedAttempt 累计错误次数，达到上限时作废验证码
func (s *AuthService) recordFailedAttempt(ctx context.Context, reset *models.PasswordReset) error {
	if err := s.db.WithContext(ctx).Model(&models.PasswordReset{}).
		Where("id = ?", reset.ID).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
		return NewInternalError("failed to record reset attempt", err)
	}
	if reset.Attempts+1 < maxResetAttempts {
		return NewValidationError("invalid reset code")
	}

	if err := s.db.WithContext(ctx).Model(&models.PasswordReset{}).
		Where("id = ?", reset.ID).
		Update("used", true).Error; err != nil {
		return NewInternalError("failed to invalidate reset code", err)
	}
	logger.FromContext(ctx).Warn().Uint("user_id", reset.UserID).Msg("reset code locked after too many attempts")
	return NewTooManyRequestsError("too many invalid attempts, request a new code")
}
