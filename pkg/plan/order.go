package plan

// Order selects which grouping drives the render loop.
type Order int

const (
	// DataFirst loads each distinct data file once and renders every template
	// paired with it.
	DataFirst Order = iota + 1
	// TemplateFirst walks templates and loads data per pair.
	TemplateFirst
)

// String returns a readable name for log output.
func (o Order) String() string {
	switch o {
	case DataFirst:
		return "data-first"
	case TemplateFirst:
		return "template-first"
	default:
		return "unknown"
	}
}

// ChooseOrder picks the loop order. Data loads are usually the expensive
// part, so DataFirst is the default; TemplateFirst wins when there is no data
// index at all or when there are more distinct data files than templates.
func ChooseOrder(p *Plan) Order {
	if p == nil || p.ByData.Empty() {
		return TemplateFirst
	}
	if !p.ByTemplate.Empty() && p.ByData.Len() > p.ByTemplate.Len() {
		return TemplateFirst
	}
	return DataFirst
}
