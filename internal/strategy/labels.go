package strategy

// Labels maps spacing classes to display names. The ladder itself never
// carries display strings.
type Labels map[SpacingClass]string

var (
	EnglishLabels = Labels{Small: "small", Medium: "medium", Large: "large"}
	ChineseLabels = Labels{Small: "小网", Medium: "中网", Large: "大网"}
)

// LabelsFor returns the labels for lang ("en", "zh"), defaulting to English.
func LabelsFor(lang string) Labels {
	switch lang {
	case "zh", "zh-CN", "zh_CN":
		return ChineseLabels
	}
	return EnglishLabels
}

func (l Labels) For(c SpacingClass) string {
	if s, ok := l[c]; ok {
		return s
	}
	return c.String()
}
