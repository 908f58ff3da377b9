package core

import "time"

// ProductBehavior 是单个 (用户, 商品) 的行为聚合。
//
// 三类信号：
//  - PurchaseCount：跨订单累加的购买件数
//  - Favorited / FavoritedAt：是否收藏及收藏时间（多条记录时后写覆盖）
//  - Rating：评价分 0-10（一个用户对一个商品通常只评一次，后写覆盖）
//
// 只由 behavior.Aggregator 构建，不独立持久化，每次打分按需重建。
type ProductBehavior struct {
	PurchaseCount int
	Favorited     bool
	FavoritedAt   *time.Time
	Rating        *int
}

// Weight 计算该行为的打分权重（三类信号可叠加）：
//  - 购买：min(PurchaseCount, 5)，抑制批量采购的影响
//  - 收藏：0.5 × 时间衰减 1/(1+0.1*天数)；无时间戳则不衰减
//  - 评价：0.8 × (Rating/10)
func (b *ProductBehavior) Weight(now time.Time) float64 {
	var w float64
	if b.PurchaseCount > 0 {
		count := b.PurchaseCount
		if count > 5 {
			count = 5
		}
		w += float64(count)
	}
	if b.Favorited {
		fav := 0.5
		if b.FavoritedAt != nil {
			days := now.Sub(*b.FavoritedAt).Hours() / 24.0
			if days < 0 {
				days = 0
			}
			fav *= 1.0 / (1.0 + 0.1*days)
		}
		w += fav
	}
	if b.Rating != nil {
		w += 0.8 * (float64(*b.Rating) / 10.0)
	}
	return w
}

// BehaviorProfile 是一个用户的行为画像：productID -> ProductBehavior。
// 请求级临时对象，每次打分从数据源重建。
type BehaviorProfile struct {
	UserID    string
	Behaviors map[string]*ProductBehavior
}

// NewBehaviorProfile 创建一个空画像。
func NewBehaviorProfile(userID string) *BehaviorProfile {
	return &BehaviorProfile{
		UserID:    userID,
		Behaviors: make(map[string]*ProductBehavior),
	}
}

// Behavior 返回指定商品的行为条目，不存在时创建。
func (p *BehaviorProfile) Behavior(productID string) *ProductBehavior {
	b, ok := p.Behaviors[productID]
	if !ok {
		b = &ProductBehavior{}
		p.Behaviors[productID] = b
	}
	return b
}

// Has 判断用户是否与商品有过交互（购买/收藏/评价任一）。
func (p *BehaviorProfile) Has(productID string) bool {
	_, ok := p.Behaviors[productID]
	return ok
}

// IsEmpty 判断画像是否为空（无任何行为条目），用于触发冷启动。
func (p *BehaviorProfile) IsEmpty() bool {
	return len(p.Behaviors) == 0
}

// InteractionCount 统计交互总数：购买（件数>0）、收藏、评价各记一次。
// 冷启动判定：交互总数 <= 阈值（默认 3）视为新用户。
func (p *BehaviorProfile) InteractionCount() int {
	count := 0
	for _, b := range p.Behaviors {
		if b.PurchaseCount > 0 {
			count++
		}
		if b.Favorited {
			count++
		}
		if b.Rating != nil {
			count++
		}
	}
	return count
}
