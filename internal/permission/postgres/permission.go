package postgres

import (
	"context"

	userDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/user"
	"github.com/alphawing/brokerage/internal/permission"
	"github.com/alphawing/brokerage/internal/store"
	"github.com/alphawing/brokerage/internal/transport"
	"gorm.io/gorm/clause"
)

type PermissionRepository struct {
	gw *store.Gateway
}

func NewPermissionRepository(gw *store.Gateway) permission.Repository {
	return &PermissionRepository{gw: gw}
}

func (r *PermissionRepository) List(ctx context.Context, page transport.PageRequest) ([]*userDatamodel.Permission, int64, error) {
	var total int64
	if err := r.gw.Session(ctx).Model(&userDatamodel.Permission{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var perms []*userDatamodel.Permission
	err := r.gw.Session(ctx).Order("name ASC").Limit(page.Size).Offset(page.Offset()).Find(&perms).Error
	return perms, total, err
}

func (r *PermissionRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.Permission, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *PermissionRepository) GetByName(ctx context.Context, name string) (*userDatamodel.Permission, error) {
	return r.first(ctx, "name = ?", name)
}

func (r *PermissionRepository) first(ctx context.Context, query string, args ...interface{}) (*userDatamodel.Permission, error) {
	var p userDatamodel.Permission
	err := r.gw.Session(ctx).Where(query, args...).First(&p).Error
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PermissionRepository) Create(ctx context.Context, p *userDatamodel.Permission) error {
	return r.gw.Session(ctx).Create(p).Error
}

func (r *PermissionRepository) Update(ctx context.Context, p *userDatamodel.Permission) error {
	return r.gw.Session(ctx).Model(p).Select("name", "description").Updates(p).Error
}

func (r *PermissionRepository) Delete(ctx context.Context, id int64) error {
	db := r.gw.Session(ctx)
	if err := db.Where("permission_id = ?", id).Delete(&userDatamodel.UserPermission{}).Error; err != nil {
		return err
	}
	return db.Delete(&userDatamodel.Permission{}, id).Error
}

func (r *PermissionRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var n int64
	err := r.gw.Session(ctx).Model(&userDatamodel.User{}).Where("id = ?", userID).Count(&n).Error
	return n > 0, err
}

func (r *PermissionRepository) Grant(ctx context.Context, link *userDatamodel.UserPermission) error {
	return r.gw.Session(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(link).Error
}

func (r *PermissionRepository) Revoke(ctx context.Context, userID, permissionID int64) (bool, error) {
	res := r.gw.Session(ctx).
		Where("user_id = ? AND permission_id = ?", userID, permissionID).
		Delete(&userDatamodel.UserPermission{})
	return res.RowsAffected > 0, res.Error
}

func (r *PermissionRepository) ListGrants(ctx context.Context, userID int64) ([]permission.Grant, error) {
	var grants []permission.Grant
	err := r.gw.Session(ctx).
		Table("user_permissions up").
		Select("up.user_id, up.permission_id, p.name, up.granted_by, up.granted_at").
		Joins("JOIN permissions p ON p.id = up.permission_id").
		Where("up.user_id = ?", userID).
		Order("p.name ASC").
		Scan(&grants).Error
	return grants, err
}
