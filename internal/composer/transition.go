package composer

// Action is a category or marketing-type change.
type Action interface {
	isAction()
}

// SetCategory switches the template category.
type SetCategory struct {
	Category Category
}

// SetMarketingType switches the marketing sub-type. It only applies while
// the category is MARKETING.
type SetMarketingType struct {
	MarketingType MarketingType
}

func (SetCategory) isAction()      {}
func (SetMarketingType) isAction() {}

// Transition applies a to d and returns the resulting draft. d itself is not
// modified. Unknown categories or marketing types leave the draft unchanged.
func Transition(d Draft, a Action) Draft {
	next := d.Clone()
	switch a := a.(type) {
	case SetCategory:
		return toCategory(next, a.Category)
	case SetMarketingType:
		if next.Category != CategoryMarketing {
			return next
		}
		return toMarketingType(next, a.MarketingType)
	}
	return next
}

func toCategory(d Draft, c Category) Draft {
	if c == d.Category {
		return d
	}
	switch c {
	case CategoryAuthentication:
		d.Category = CategoryAuthentication
		d.MarketingType = MarketingDefault
		d.CatalogFormat = ""
		d.HeaderType = HeaderNone
		d.HeaderText = ""
		d.Body = OTPBody
		d.Examples = Examples{}
		d.Buttons = []Button{NewButton(ButtonOTPCopy)}
		d.CodeDeliveryMethod = CodeDeliveryCopyCode
		return d

	case CategoryMarketing, CategoryUtility:
		switch d.Category {
		case CategoryAuthentication:
			d.Body = ""
			d.Examples.Body = nil
			d.Buttons = []Button{}
			d.CodeDeliveryMethod = ""
		case CategoryMarketing:
			// Leave the catalog / call-permission layout before the
			// marketing type stops meaning anything.
			d = toMarketingType(d, MarketingDefault)
		}
		d.Category = c
		return d
	}
	return d
}

func toMarketingType(d Draft, m MarketingType) Draft {
	if m == d.MarketingType {
		return d
	}
	switch m {
	case MarketingCatalog:
		d.HeaderType = HeaderText
		d.HeaderText = CatalogGreeting
		d.Examples.Header = nil
		d.Buttons = []Button{NewButton(ButtonCatalogView)}
		d.CatalogFormat = CatalogMessage

	case MarketingCallPermission:
		d.Buttons = []Button{NewButton(ButtonCallPermissionView)}
		d.CatalogFormat = ""

	case MarketingDefault:
		leaving := d.MarketingType
		d.Buttons = []Button{}
		d.CatalogFormat = ""
		if leaving == MarketingCatalog {
			d.HeaderType = HeaderNone
			d.HeaderText = ""
			d.Examples.Header = nil
		} else {
			d.HeaderType = HeaderText
		}

	default:
		return d
	}
	d.MarketingType = m
	return d
}
