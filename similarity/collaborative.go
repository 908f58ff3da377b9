package similarity

import (
	"context"
	"fmt"
	"sort"

	"github.com/rushteam/mallrec/core"
	"github.com/rushteam/mallrec/pkg/logger"
)

// CollaborativeEngine 是协同过滤相似度引擎（Item-CF）。
//
// 核心思想："被同一批用户购买/收藏的商品，相互相似"
//
// 算法流程：
//  1. 购买矩阵：matrix[productID][userID] 累加购买件数
//  2. 收藏矩阵：matrix[productID][userID] = 1（二值，不累加）
//  3. 对出现在任一矩阵中的每个无序商品对：
//     - 购买向量余弦相似度（公共用户点积 / 范数乘积，范数为 0 则 0）
//     - 收藏用户集 Jaccard 相似度（双空则 0）
//     - 融合：Alpha*cosine + (1-Alpha)*jaccard
//  4. 自相似固定 1.0；融合分为 0 的条目不存储（稀疏）
//
// 每个无序对只算一次、双向镜像写入，对称性由构建保证。
type CollaborativeEngine struct {
	Source core.DataSource

	// Alpha 余弦相似度的融合权重，收藏 Jaccard 权重为 1-Alpha。默认 0.7。
	Alpha float64

	Log *logger.Logger
}

func NewCollaborativeEngine(source core.DataSource, alpha float64, log *logger.Logger) *CollaborativeEngine {
	if log == nil {
		log = logger.Nop()
	}
	return &CollaborativeEngine{
		Source: source,
		Alpha:  alpha,
		Log:    log.With("engine", core.MatrixKindCollaborative),
	}
}

func (e *CollaborativeEngine) Kind() string { return core.MatrixKindCollaborative }

func (e *CollaborativeEngine) Compute(ctx context.Context) (*core.SimilarityMatrix, error) {
	alpha := e.Alpha
	if alpha <= 0 || alpha > 1 {
		alpha = 0.7
	}

	purchases, err := e.Source.ListPurchases(ctx)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	favorites, err := e.Source.ListFavorites(ctx)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	// 购买矩阵：productID -> userID -> 件数（跨订单累加）
	purchaseMatrix := make(map[string]map[string]float64)
	for _, p := range purchases {
		if p == nil || p.ProductID == "" || p.UserID == "" || p.Quantity <= 0 {
			continue
		}
		row, ok := purchaseMatrix[p.ProductID]
		if !ok {
			row = make(map[string]float64)
			purchaseMatrix[p.ProductID] = row
		}
		row[p.UserID] += float64(p.Quantity)
	}

	// 收藏矩阵：productID -> 收藏用户集（二值指示）
	favoriteMatrix := make(map[string]map[string]struct{})
	for _, f := range favorites {
		if f == nil || f.ProductID == "" || f.UserID == "" {
			continue
		}
		set, ok := favoriteMatrix[f.ProductID]
		if !ok {
			set = make(map[string]struct{})
			favoriteMatrix[f.ProductID] = set
		}
		set[f.UserID] = struct{}{}
	}

	// 商品全集 = 两个矩阵出现过的商品并集（排序保证遍历确定性）
	productSet := make(map[string]struct{}, len(purchaseMatrix))
	for pid := range purchaseMatrix {
		productSet[pid] = struct{}{}
	}
	for pid := range favoriteMatrix {
		productSet[pid] = struct{}{}
	}
	products := make([]string, 0, len(productSet))
	for pid := range productSet {
		products = append(products, pid)
	}
	sort.Strings(products)

	matrix := core.NewSimilarityMatrix(core.MatrixKindCollaborative)
	for i, p1 := range products {
		matrix.Set(p1, p1, 1.0)
		for _, p2 := range products[i+1:] {
			cosine := cosineSimilarity(purchaseMatrix[p1], purchaseMatrix[p2])
			jaccard := setJaccard(favoriteMatrix[p1], favoriteMatrix[p2])
			fused := alpha*cosine + (1-alpha)*jaccard
			if fused > 0 {
				matrix.SetPair(p1, p2, fused)
			}
		}
	}

	e.Log.Info("collaborative matrix computed",
		"products", len(products),
		"purchase_records", len(purchases),
		"favorite_records", len(favorites),
	)
	return matrix, nil
}

var _ Engine = (*CollaborativeEngine)(nil)
