package bout

// Method is the category of how a bout ended.
type Method int

// Method categories. Classifier outputs follow the order of Methods.
const (
	Decision Method = iota
	KOTKO
	Submission
	Other
)

// Methods lists the categories predicted by the method classifiers, in
// class-index order.
var Methods = [...]Method{Decision, KOTKO, Submission}

func (m Method) String() string {
	switch m {
	case Decision:
		return "Decision"
	case KOTKO:
		return "KO/TKO"
	case Submission:
		return "Submission"
	default:
		return "Other"
	}
}

// methodAliases maps free-text endings that are not already a category name.
var methodAliases = map[string]Method{
	"Decision - Majority":     Decision,
	"Decision - Split":        Decision,
	"Decision - Unanimous":    Decision,
	"TKO - Doctor's Stoppage": KOTKO,
	"Overturned":              Other,
	"Could Not Continue":      Other,
	"DQ":                      Other,
	"Other":                   Other,
}

// ParseMethod maps a free-text ending onto its category.
func ParseMethod(text string) Method {
	if m, ok := methodAliases[text]; ok {
		return m
	}
	for _, m := range Methods {
		if m.String() == text {
			return m
		}
	}
	return Other
}
