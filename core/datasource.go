package core

import "context"

// DataSource 是推荐引擎对商城数据的只读领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（datasource）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//   - 推荐引擎只通过此窄接口消费商品/订单/收藏/评价数据，
//     不感知路由、事务、表结构等外部细节
//
// 实现：
//   - datasource.GormDataSource（gorm + postgres，生产）
//   - datasource.MemoryDataSource（内存，测试/原型）
type DataSource interface {
	// Name 返回数据源名称（用于日志/监控）
	Name() string

	// ListActiveProducts 列出所有在架商品（含名称/描述/类目/价格）
	ListActiveProducts(ctx context.Context) ([]*Product, error)

	// GetProducts 按 ID 批量解析商品，未知/已删除的 ID 静默跳过
	GetProducts(ctx context.Context, ids []string) ([]*Product, error)

	// ListProductsByCategories 列出属于给定类目的商品（limit <= 0 不限制）
	ListProductsByCategories(ctx context.Context, categoryIDs []string, limit int) ([]*Product, error)

	// ListPurchases 列出全量购买明细（批量建矩阵用）
	ListPurchases(ctx context.Context) ([]*PurchaseRecord, error)

	// ListUserPurchases 列出单个用户的购买明细
	ListUserPurchases(ctx context.Context, userID string) ([]*PurchaseRecord, error)

	// ListFavorites 列出全量收藏记录
	ListFavorites(ctx context.Context) ([]*FavoriteRecord, error)

	// ListUserFavorites 列出单个用户的收藏记录
	ListUserFavorites(ctx context.Context, userID string) ([]*FavoriteRecord, error)

	// ListEvaluations 列出全量评价记录
	ListEvaluations(ctx context.Context) ([]*EvaluationRecord, error)

	// ListUserEvaluations 列出单个用户的评价记录
	ListUserEvaluations(ctx context.Context, userID string) ([]*EvaluationRecord, error)

	// GetUser 按 ID 解析用户属性（冷启动打标用）；不存在返回 (nil, nil)
	GetUser(ctx context.Context, userID string) (*User, error)
}
