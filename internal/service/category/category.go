// Package category 提供消息的类目划分
// 固定类目面向国际学生入学场景，用于统计和一致性分析
package category

import "strings"

// Fallback 未命中任何类目时的默认类目
const Fallback = "Other Inquiries"

// Categories 固定类目表
var Categories = []string{
	"Housing",
	"Admissions",
	"Visa and Immigration",
	"Travel and Arrival",
	"Forms and Documentation",
	"Money and Banking",
	"Campus Life and Academics",
	"Health and Safety",
	"Phone and Connectivity",
	"Work and Career",
	"Community and Daily Life",
	Fallback,
}

// Subcategories 类目下的细分标签，用于前端选择和统计
var Subcategories = map[string][]string{
	"Housing": {
		"Apply / Eligibility",
		"Housing options overview",
		"Residence halls",
		"Apartments",
		"Rates & contracts",
		"Move-in & move-out",
		"Roommates",
		"Break housing & guest housing",
		"Parent guide / safety",
		"Services & support (living features)",
	},
	"Admissions": {
		"Application and deadlines",
		"Documents and test scores",
		"Program requirements",
		"Decision and next steps",
	},
	"Visa and Immigration": {
		"I-20 and DS-2019",
		"Visa interview and documents",
		"SEVIS and reporting",
		"Maintaining status",
	},
	"Travel and Arrival": {
		"Booking flights and timing",
		"Airport pickup and directions",
		"Temporary housing / hotels",
		"What to pack",
		"Arriving early or late",
	},
	"Forms and Documentation": {
		"Immunization and health forms",
		"Financial forms and proof of funding",
		"Housing application forms",
		"Enrollment and registration forms",
		"Other university forms",
	},
	"Money and Banking": {
		"Paying tuition and fees",
		"Bank accounts and cards",
		"Budgeting and cost of living",
		"Scholarships and assistantships",
	},
	"Campus Life and Academics": {
		"Class registration",
		"Advising and tutoring",
		"Clubs and organizations",
		"Campus services and facilities",
	},
	"Health and Safety": {
		"Health insurance and care",
		"Counseling and mental health",
		"Campus safety and emergency",
	},
	"Phone and Connectivity": {
		"Phone plans and SIM cards",
		"Wi-Fi and internet",
	},
	"Work and Career": {
		"On-campus jobs",
		"CPT / OPT basics",
		"Career services and internships",
	},
	"Community and Daily Life": {
		"Shopping and groceries",
		"Transportation",
		"Local community and culture",
	},
	Fallback: {
		"General questions",
		"Not sure / other",
	},
}

// 关键词表，按类目优先级排列；先命中先得
var keywordRules = []struct {
	category string
	keywords []string
}{
	{
		category: "Housing",
		keywords: []string{
			"housing", "dorm", "residence hall", "hall", "apartment",
			"roommate", "room mate", "move-in", "move in", "move-out",
			"move out", "lease", "contract",
		},
	},
	{
		category: "Admissions",
		keywords: []string{
			"admission", "apply", "application", "deadline",
			"program requirements", "gpa", "transcript", "offer letter",
		},
	},
	{
		category: "Visa and Immigration",
		keywords: []string{
			"visa", "i-20", "i20", "sevis", "ds-2019", "immigration",
			"status", "consulate",
		},
	},
	{
		category: "Travel and Arrival",
		keywords: []string{
			"flight", "airport", "arrival", "travel", "pickup", "pick up",
			"hotel", "temporary housing",
		},
	},
	{
		category: "Forms and Documentation",
		keywords: []string{
			"form", "forms", "document", "documents", "paperwork", "pdf upload",
		},
	},
	{
		category: "Money and Banking",
		keywords: []string{
			"tuition", "fee", "bank", "account", "card", "loan",
			"scholarship", "assistantship", "budget", "money", "rent",
		},
	},
	{
		category: "Campus Life and Academics",
		keywords: []string{
			"class", "course", "registration", "enroll", "enrol",
			"advisor", "adviser", "tutoring", "club", "organization",
			"society", "campus",
		},
	},
	{
		category: "Health and Safety",
		keywords: []string{
			"insurance", "health", "doctor", "hospital", "clinic",
			"mental health", "counseling", "counselling", "safety", "emergency",
		},
	},
	{
		category: "Phone and Connectivity",
		keywords: []string{
			"phone", "sim", "sim card", "wifi", "wi-fi", "internet", "data plan",
		},
	},
	{
		category: "Work and Career",
		keywords: []string{
			"job", "work", "internship", "cpt", "opt", "career",
			"on-campus job", "on campus job", "employment",
		},
	},
	{
		category: "Community and Daily Life",
		keywords: []string{
			"grocery", "groceries", "shopping", "bus", "transport",
			"transportation", "parking", "community", "restaurant",
		},
	},
}

// Classify 按关键词将消息划分到固定类目
// 不追求精确，只需支撑图表和分组
func Classify(text string) string {
	if text == "" {
		return Fallback
	}

	t := strings.ToLower(text)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(t, kw) {
				return rule.category
			}
		}
	}
	return Fallback
}

// IsKnown 类目是否属于固定类目表
func IsKnown(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
