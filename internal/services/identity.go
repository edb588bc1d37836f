package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"jejuboard/internal/apperr"
	"jejuboard/internal/models"
	"jejuboard/internal/store"
	"jejuboard/internal/utils"
)

const (
	minEmailLen    = 6
	minPasswordLen = 8
	maxPasswordLen = 20
	maxNicknameLen = 10
)

var (
	emailPattern    = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)
	passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]+$`)
	hasUpper        = regexp.MustCompile(`[A-Z]`)
	hasLower        = regexp.MustCompile(`[a-z]`)
	hasDigit        = regexp.MustCompile(`\d`)
	hasSpecial      = regexp.MustCompile(`[@$!%*?&]`)
)

// IdentityService 负责注册、登录以及资料修改
type IdentityService struct {
	store store.Store
}

func NewIdentityService(s store.Store) *IdentityService {
	return &IdentityService{store: s}
}

func (s *IdentityService) validateEmail(ctx context.Context, email string, excludeID uint) error {
	if strings.TrimSpace(email) == "" {
		return apperr.Validation("请输入邮箱。")
	}
	if len(email) < minEmailLen || !emailPattern.MatchString(email) {
		return apperr.Validation("请输入正确的邮箱格式（例如: example@example.com）")
	}
	taken, err := s.store.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return apperr.Internal("查询邮箱失败", err)
	}
	if taken {
		return apperr.Conflict("该邮箱已被注册。")
	}
	return nil
}

func validatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return apperr.Validation("请输入密码。")
	}
	if n := utf8.RuneCountInString(password); n < minPasswordLen || n > maxPasswordLen {
		return apperr.Validation("密码长度需要在 8 到 20 位之间。")
	}
	if !passwordCharset.MatchString(password) ||
		!hasUpper.MatchString(password) ||
		!hasLower.MatchString(password) ||
		!hasDigit.MatchString(password) ||
		!hasSpecial.MatchString(password) {
		return apperr.Validation("密码必须同时包含大写字母、小写字母、数字和特殊字符(@$!%*?&)。")
	}
	return nil
}

func (s *IdentityService) validateNickname(ctx context.Context, nickname string, excludeID uint) error {
	if strings.TrimSpace(nickname) == "" {
		return apperr.Validation("请输入昵称。")
	}
	if strings.Contains(nickname, " ") {
		return apperr.Validation("昵称不能包含空格。")
	}
	if utf8.RuneCountInString(nickname) > maxNicknameLen {
		return apperr.Validation("昵称最多 10 个字符。")
	}
	taken, err := s.store.NicknameTaken(ctx, nickname, excludeID)
	if err != nil {
		return apperr.Internal("查询昵称失败", err)
	}
	if taken {
		return apperr.Conflict("该昵称已被使用。")
	}
	return nil
}

// Register 校验顺序：邮箱、密码、确认密码、昵称
func (s *IdentityService) Register(ctx context.Context, email, password, passwordConfirm, nickname string) (*models.User, error) {
	if err := s.validateEmail(ctx, email, 0); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if password != passwordConfirm {
		return nil, apperr.Validation("两次输入的密码不一致。")
	}
	if err := s.validateNickname(ctx, nickname, 0); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal("密码加密失败", err)
	}

	user := &models.User{
		Name:     nickname,
		Nickname: nickname,
		Email:    email,
		Password: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		// 并发注册时由唯一索引兜底
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("邮箱或昵称已被使用。")
		}
		return nil, apperr.Internal("创建用户失败", err)
	}
	return user, nil
}

func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, apperr.Validation("请输入邮箱和密码。")
	}

	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Auth("邮箱或密码错误。")
		}
		return nil, apperr.Internal("查询用户失败", err)
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, apperr.Auth("邮箱或密码错误。")
	}
	return user, nil
}

func (s *IdentityService) UserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("用户不存在。")
		}
		return nil, apperr.Internal("查询用户失败", err)
	}
	return user, nil
}

// UpdateNickname 已发布内容的归属不受昵称变化影响
func (s *IdentityService) UpdateNickname(ctx context.Context, userID uint, nickname string) (*models.User, error) {
	user, err := s.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.validateNickname(ctx, nickname, userID); err != nil {
		return nil, err
	}

	if err := s.store.UpdateNickname(ctx, userID, nickname); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("该昵称已被使用。")
		}
		return nil, apperr.Internal("更新昵称失败", err)
	}
	user.Nickname = nickname
	return user, nil
}

func (s *IdentityService) UpdatePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := s.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if oldPassword == "" || newPassword == "" {
		return apperr.Validation("请输入密码。")
	}
	if !utils.CheckPasswordHash(oldPassword, user.Password) {
		return apperr.Auth("当前密码不正确。")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if oldPassword == newPassword {
		return apperr.Validation("新密码不能与旧密码相同。")
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal("密码加密失败", err)
	}
	if err := s.store.UpdatePassword(ctx, userID, hash); err != nil {
		return apperr.Internal("更新密码失败", err)
	}
	return nil
}
