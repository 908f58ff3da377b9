package datasource

import (
	"context"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rushteam/mallrec/core"
	"github.com/rushteam/mallrec/pkg/logger"
)

// GormDataSource 是基于 gorm 的生产数据源，读取商城库中的
// 商品/类目关联/订单明细/收藏/评价/用户表。
//
// 只读：推荐引擎不写商城库。
type GormDataSource struct {
	db  *gorm.DB
	log *logger.Logger
}

// OpenPostgres 用 DSN 打开 postgres 连接。
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

func NewGormDataSource(db *gorm.DB, baseLog *logger.Logger) *GormDataSource {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &GormDataSource{db: db, log: baseLog.With("datasource", "gorm")}
}

func (g *GormDataSource) Name() string { return "gorm" }

// ========== 表模型 ==========

type productRow struct {
	ID          string  `gorm:"column:id;primaryKey"`
	Name        string  `gorm:"column:name"`
	Description string  `gorm:"column:description"`
	Price       float64 `gorm:"column:price"`
	Status      int     `gorm:"column:status"` // 1 = 在架
}

func (productRow) TableName() string { return "products" }

type productCategoryRow struct {
	ProductID  string `gorm:"column:product_id"`
	CategoryID string `gorm:"column:category_id"`
}

func (productCategoryRow) TableName() string { return "product_categories" }

type orderItemRow struct {
	ProductID string `gorm:"column:product_id"`
	UserID    string `gorm:"column:user_id"`
	Quantity  int    `gorm:"column:quantity"`
}

func (orderItemRow) TableName() string { return "order_items" }

type favoriteRow struct {
	ProductID string    `gorm:"column:product_id"`
	UserID    string    `gorm:"column:user_id"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (favoriteRow) TableName() string { return "favorites" }

type evaluationRow struct {
	ProductID string `gorm:"column:product_id"`
	UserID    string `gorm:"column:user_id"`
	Score     int    `gorm:"column:score"`
}

func (evaluationRow) TableName() string { return "evaluations" }

type userRow struct {
	ID     string `gorm:"column:id;primaryKey"`
	Gender string `gorm:"column:gender"`
	Email  string `gorm:"column:email"`
}

func (userRow) TableName() string { return "users" }

// ========== core.DataSource 实现 ==========

func (g *GormDataSource) ListActiveProducts(ctx context.Context) ([]*core.Product, error) {
	var rows []productRow
	if err := g.db.WithContext(ctx).Where("status = ?", 1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}

	// 类目关联一次性取回，避免 N+1
	var catRows []productCategoryRow
	if err := g.db.WithContext(ctx).Where("product_id IN ?", ids).Find(&catRows).Error; err != nil {
		return nil, err
	}
	categories := make(map[string][]string, len(rows))
	for _, c := range catRows {
		categories[c.ProductID] = append(categories[c.ProductID], c.CategoryID)
	}

	out := make([]*core.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, &core.Product{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			CategoryIDs: categories[r.ID],
			Price:       r.Price,
		})
	}
	return out, nil
}

func (g *GormDataSource) GetProducts(ctx context.Context, ids []string) ([]*core.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []productRow
	if err := g.db.WithContext(ctx).Where("id IN ? AND status = ?", ids, 1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var catRows []productCategoryRow
	if err := g.db.WithContext(ctx).Where("product_id IN ?", ids).Find(&catRows).Error; err != nil {
		return nil, err
	}
	categories := make(map[string][]string, len(rows))
	for _, c := range catRows {
		categories[c.ProductID] = append(categories[c.ProductID], c.CategoryID)
	}

	index := make(map[string]*core.Product, len(rows))
	for _, r := range rows {
		index[r.ID] = &core.Product{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			CategoryIDs: categories[r.ID],
			Price:       r.Price,
		}
	}

	// 保持入参顺序，未知/下架的 ID 静默跳过
	out := make([]*core.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := index[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (g *GormDataSource) ListProductsByCategories(ctx context.Context, categoryIDs []string, limit int) ([]*core.Product, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	var catRows []productCategoryRow
	q := g.db.WithContext(ctx).Where("category_id IN ?", categoryIDs)
	if err := q.Find(&catRows).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(catRows))
	ids := make([]string, 0, len(catRows))
	for _, c := range catRows {
		if _, ok := seen[c.ProductID]; ok {
			continue
		}
		seen[c.ProductID] = struct{}{}
		ids = append(ids, c.ProductID)
		if limit > 0 && len(ids) >= limit {
			break
		}
	}
	return g.GetProducts(ctx, ids)
}

func (g *GormDataSource) ListPurchases(ctx context.Context) ([]*core.PurchaseRecord, error) {
	var rows []orderItemRow
	if err := g.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*core.PurchaseRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, &core.PurchaseRecord{ProductID: r.ProductID, UserID: r.UserID, Quantity: r.Quantity})
	}
	return out, nil
}

func (g *GormDataSource) ListUserPurchases(ctx context.Context, userID string) ([]*core.PurchaseRecord, error) {
	var rows []orderItemRow
	if err := g.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*core.PurchaseRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, &core.PurchaseRecord{ProductID: r.ProductID, UserID: r.UserID, Quantity: r.Quantity})
	}
	return out, nil
}

func (g *GormDataSource) ListFavorites(ctx context.Context) ([]*core.FavoriteRecord, error) {
	var rows []favoriteRow
	if err := g.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*core.FavoriteRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, &core.FavoriteRecord{ProductID: r.ProductID, UserID: r.UserID, CreatedAt: r.CreatedAt})
	}
	return out, nil
}

func (g *GormDataSource) ListUserFavorites(ctx context.Context, userID string) ([]*core.FavoriteRecord, error) {
	var rows []favoriteRow
	if err := g.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*core.FavoriteRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, &core.FavoriteRecord{ProductID: r.ProductID, UserID: r.UserID, CreatedAt: r.CreatedAt})
	}
	return out, nil
}

func (g *GormDataSource) ListEvaluations(ctx context.Context) ([]*core.EvaluationRecord, error) {
	var rows []evaluationRow
	if err := g.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*core.EvaluationRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, &core.EvaluationRecord{ProductID: r.ProductID, UserID: r.UserID, Score: r.Score})
	}
	return out, nil
}

func (g *GormDataSource) ListUserEvaluations(ctx context.Context, userID string) ([]*core.EvaluationRecord, error) {
	var rows []evaluationRow
	if err := g.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*core.EvaluationRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, &core.EvaluationRecord{ProductID: r.ProductID, UserID: r.UserID, Score: r.Score})
	}
	return out, nil
}

func (g *GormDataSource) GetUser(ctx context.Context, userID string) (*core.User, error) {
	var row userRow
	err := g.db.WithContext(ctx).Where("id = ?", userID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &core.User{ID: row.ID, Gender: row.Gender, Email: row.Email}, nil
}

// 确保 GormDataSource 实现了 core.DataSource 接口
var _ core.DataSource = (*GormDataSource)(nil)
