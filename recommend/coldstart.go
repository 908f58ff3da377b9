package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/rushteam/mallrec/core"
	"github.com/rushteam/mallrec/pkg/logger"
)

// 冷启动粗粒度标签
const (
	TagMale    = "male"
	TagFemale  = "female"
	TagStudent = "student"
	TagGeneral = "general"
)

// ColdStart 是冷启动解析器：为交互历史不足的新用户做类目种子推荐。
//
// 算法流程：
//  1. 从用户属性派生粗粒度标签：性别 -> male/female；邮箱域名 -> student/general
//  2. 标签查偏好类目表（可注入调参，不是硬编码分支）；
//     无任何命中时回退到默认类目集合
//  3. 取这些类目下至多 SeedLimit 个商品作为种子；
//     类目下无商品时从热门榜（有序集合）兜底取种子
//  4. 沿内容矩阵传播：score[候选] += similarity(种子, 候选)，候选本身是种子的跳过
//  5. 按分数降序截断 topK
//
// 未知用户返回空列表（不报错）。
type ColdStart struct {
	Source core.DataSource

	// Hot 热门榜存储（可选，nil 时无热门兜底）
	Hot core.KeyValueStore

	// TagCategories 标签 -> 偏好类目 ID 集合
	TagCategories map[string][]string

	// DefaultCategories 无标签命中时的兜底类目
	DefaultCategories []string

	// SeedLimit 种子商品上限，默认 10
	SeedLimit int

	// HotKey 热门榜的有序集合 key
	HotKey string

	Log *logger.Logger
}

func NewColdStart(source core.DataSource, log *logger.Logger) *ColdStart {
	if log == nil {
		log = logger.Nop()
	}
	return &ColdStart{
		Source:    source,
		SeedLimit: 10,
		Log:       log.With("component", "coldstart"),
	}
}

// Recommend 为新用户产出至多 topK 条推荐，基于内容矩阵的种子传播。
func (c *ColdStart) Recommend(
	ctx context.Context,
	userID string,
	matrix *core.SimilarityMatrix,
	topK int,
) ([]core.RecommendItem, error) {
	if matrix == nil || topK <= 0 {
		return nil, nil
	}

	user, err := c.Source.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		// 未知用户：空列表而非错误
		return nil, nil
	}

	seeds, err := c.seedProducts(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(seeds) == 0 {
		return nil, nil
	}

	seedSet := make(map[string]struct{}, len(seeds))
	for _, p := range seeds {
		seedSet[p.ID] = struct{}{}
	}

	// 种子传播：候选得分 = 各种子相似度之和
	scores := make(map[string]float64)
	for _, seed := range seeds {
		for candidate, sim := range matrix.Row(seed.ID) {
			if _, ok := seedSet[candidate]; ok {
				continue
			}
			scores[candidate] += sim
		}
	}

	items := make([]core.RecommendItem, 0, len(scores))
	for pid, score := range scores {
		items = append(items, core.RecommendItem{ProductID: pid, Score: score})
	}
	return topN(items, topK), nil
}

// seedProducts 解析标签、查类目、取种子；类目无货时走热门榜兜底。
func (c *ColdStart) seedProducts(ctx context.Context, user *core.User) ([]*core.Product, error) {
	limit := c.SeedLimit
	if limit <= 0 {
		limit = 10
	}

	categories := c.categoriesForTags(DeriveTags(user))
	if len(categories) == 0 {
		categories = c.DefaultCategories
	}

	var seeds []*core.Product
	if len(categories) > 0 {
		var err error
		seeds, err = c.Source.ListProductsByCategories(ctx, categories, limit)
		if err != nil {
			return nil, fmt.Errorf("list seed products: %w", err)
		}
	}

	if len(seeds) == 0 && c.Hot != nil && c.HotKey != "" {
		ids, err := c.Hot.ZRange(ctx, c.HotKey, 0, int64(limit)-1)
		if err == nil && len(ids) > 0 {
			seeds, err = c.Source.GetProducts(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("resolve hot seeds: %w", err)
			}
			c.Log.Debug("coldstart fell back to hot list", "user", user.ID, "seeds", len(seeds))
		}
	}
	return seeds, nil
}

func (c *ColdStart) categoriesForTags(tags []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, tag := range tags {
		for _, cat := range c.TagCategories[tag] {
			if _, ok := seen[cat]; ok {
				continue
			}
			seen[cat] = struct{}{}
			out = append(out, cat)
		}
	}
	return out
}

// DeriveTags 从用户属性派生冷启动标签。
// 性别映射 male/female；教育域名邮箱视为 student，其余为 general。
func DeriveTags(user *core.User) []string {
	tags := make([]string, 0, 2)
	switch strings.ToLower(user.Gender) {
	case "male":
		tags = append(tags, TagMale)
	case "female":
		tags = append(tags, TagFemale)
	}
	if isStudentEmail(user.Email) {
		tags = append(tags, TagStudent)
	} else {
		tags = append(tags, TagGeneral)
	}
	return tags
}

func isStudentEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	return strings.HasSuffix(domain, ".edu") || strings.HasSuffix(domain, ".edu.cn")
}
