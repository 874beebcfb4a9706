// Package plan 定义职位发布的付费档位及其升级规则。
//
//	Standard($79) ──► Featured Pro($149) ──► Elite Managed($249)
//
// 只允许向上升级，Elite Managed 为最高档。
package plan

import (
	"fmt"
	"strings"
)

// Type 表示付费档位名称，与 jobs.plan_type 列保持一致。
type Type string

const (
	Standard     Type = "Standard"
	FeaturedPro  Type = "Featured Pro"
	EliteManaged Type = "Elite Managed"
)

// Plan 是一次发布流程中选定的档位与价格（美元整数）。
type Plan struct {
	Type  Type `json:"type"`
	Price int  `json:"price"`
}

var ordered = []Plan{
	{Type: Standard, Price: 79},
	{Type: FeaturedPro, Price: 149},
	{Type: EliteManaged, Price: 249},
}

// upgrades lists the single allowed upward step for each tier.
var upgrades = map[Type]Type{
	Standard:    FeaturedPro,
	FeaturedPro: EliteManaged,
}

// All 返回定价页展示的全部档位，按价格升序。
func All() []Plan {
	out := make([]Plan, len(ordered))
	copy(out, ordered)
	return out
}

// Lookup 返回档位对应的价格。
func Lookup(t Type) (Plan, bool) {
	for _, p := range ordered {
		if p.Type == t {
			return p, true
		}
	}
	return Plan{}, false
}

// Parse 将外部传入的档位名称（忽略大小写与首尾空白）解析为 Plan。
func Parse(raw string) (Plan, error) {
	trimmed := strings.TrimSpace(raw)
	for _, p := range ordered {
		if strings.EqualFold(string(p.Type), trimmed) {
			return p, nil
		}
	}
	return Plan{}, fmt.Errorf("unknown plan type %q", raw)
}

// Default 返回未选择档位时使用的 Standard。
func Default() Plan {
	return ordered[0]
}

// Upgrade 返回下一档位；Elite Managed 或未知档位原样返回。
func Upgrade(t Type) Plan {
	next, ok := upgrades[t]
	if !ok {
		current, known := Lookup(t)
		if !known {
			return Plan{Type: t}
		}
		return current
	}
	p, _ := Lookup(next)
	return p
}

// CanUpgrade reports whether an upward step exists from t.
func CanUpgrade(t Type) bool {
	_, ok := upgrades[t]
	return ok
}

// IsFeatured 表示该档位是否享有置顶展示。
func IsFeatured(t Type) bool {
	return t == FeaturedPro || t == EliteManaged
}
