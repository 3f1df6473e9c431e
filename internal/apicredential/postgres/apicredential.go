package postgres

import (
	"context"
	"strings"

	"github.com/alphawing/brokerage/internal/apicredential"
	credentialDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/apicredential"
	userDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/user"
	"github.com/alphawing/brokerage/internal/store"
	"github.com/alphawing/brokerage/internal/transport"
	"gorm.io/gorm"
)

type CredentialRepository struct {
	gw *store.Gateway
}

func NewCredentialRepository(gw *store.Gateway) apicredential.Repository {
	return &CredentialRepository{gw: gw}
}

func (r *CredentialRepository) List(ctx context.Context, filter apicredential.ListFilter, page transport.PageRequest) ([]*credentialDatamodel.Credential, int64, error) {
	scoped := func() *gorm.DB {
		q := r.gw.Session(ctx).Model(&credentialDatamodel.Credential{})
		if filter.UserID > 0 {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if p := strings.TrimSpace(filter.Platform); p != "" {
			q = q.Where("LOWER(platform) LIKE ?", "%"+strings.ToLower(p)+"%")
		}
		if n := strings.TrimSpace(filter.Nickname); n != "" {
			q = q.Where("LOWER(nickname) LIKE ?", "%"+strings.ToLower(n)+"%")
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var creds []*credentialDatamodel.Credential
	err := scoped().Order("id ASC").Limit(page.Size).Offset(page.Offset()).Find(&creds).Error
	return creds, total, err
}

func (r *CredentialRepository) GetByID(ctx context.Context, id int64) (*credentialDatamodel.Credential, error) {
	var c credentialDatamodel.Credential
	err := r.gw.Session(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *CredentialRepository) Create(ctx context.Context, c *credentialDatamodel.Credential) error {
	return r.gw.Session(ctx).Create(c).Error
}

func (r *CredentialRepository) Update(ctx context.Context, c *credentialDatamodel.Credential) error {
	return r.gw.Session(ctx).Save(c).Error
}

func (r *CredentialRepository) Delete(ctx context.Context, id int64) error {
	return r.gw.Session(ctx).Delete(&credentialDatamodel.Credential{}, id).Error
}

func (r *CredentialRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var n int64
	err := r.gw.Session(ctx).Model(&userDatamodel.User{}).Where("id = ?", userID).Count(&n).Error
	return n > 0, err
}
