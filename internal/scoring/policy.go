// Package scoring 根据提取到的字段计算简历完整度评分
package scoring

import (
	"fmt"

	"resume-advisor/internal/types"
)

// MaxScore 评分上限
const MaxScore = 100

// ScoringPolicy 评分策略，相同输入总是得到相同结果
type ScoringPolicy interface {
	Name() string
	Score(fields types.ExtractedFields) types.ResumeScore
}

// Primary 主评分策略：联系方式、技能数量、教育与工作年限
type Primary struct{}

// Name 实现 ScoringPolicy
func (Primary) Name() string { return "primary" }

// Score 实现 ScoringPolicy
func (Primary) Score(f types.ExtractedFields) types.ResumeScore {
	sum := 0
	if f.HasEmail() {
		sum += 10
	}
	if f.HasPhone() {
		sum += 10
	}
	if f.HasLinkedIn() {
		sum += 20
	}
	if n := len(f.Skills); n > 0 {
		sum += min(n, 10) * 2
	}
	if len(f.Education) > 0 {
		sum += 20
	}
	if len(f.Experience) > 0 {
		sum += 20
	}
	return clamp(sum)
}

// Alternate 备用评分策略：邮箱权重更高，并计入 GitHub 链接
type Alternate struct{}

// Name 实现 ScoringPolicy
func (Alternate) Name() string { return "alternate" }

// Score 实现 ScoringPolicy
func (Alternate) Score(f types.ExtractedFields) types.ResumeScore {
	sum := 0
	if f.HasEmail() {
		sum += 20
	}
	if f.HasPhone() {
		sum += 10
	}
	if f.HasLinkedIn() {
		sum += 10
	}
	if f.HasGitHub() {
		sum += 10
	}
	if n := len(f.Skills); n > 0 {
		sum += min(n*3, 20)
	}
	if len(f.Experience) > 0 {
		sum += 10
	}
	if len(f.Education) > 0 {
		sum += 10
	}
	return clamp(sum)
}

func clamp(sum int) types.ResumeScore {
	if sum < 0 {
		return 0
	}
	if sum > MaxScore {
		return MaxScore
	}
	return types.ResumeScore(sum)
}

// PolicyByName 按名称返回评分策略
func PolicyByName(name string) (ScoringPolicy, error) {
	switch name {
	case "", "primary":
		return Primary{}, nil
	case "alternate":
		return Alternate{}, nil
	default:
		return nil, fmt.Errorf("未知的评分策略: %q", name)
	}
}

// ComputeScore 使用主策略评分
func ComputeScore(fields types.ExtractedFields) types.ResumeScore {
	return Primary{}.Score(fields)
}
