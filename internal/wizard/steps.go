package wizard

// Step identifies one screen of the invoice wizard.
type Step string

const (
	StepInvoiceInfo Step = "invoice-info"
	StepClient      Step = "client"
	StepProducts    Step = "products"
	StepPayment     Step = "payment"
	StepDelivery    Step = "delivery"
	StepSignature   Step = "signature"
	StepRecap       Step = "recap"
	StepDone        Step = "done"
)

// Steps is the fixed order the wizard walks through.
var Steps = []Step{
	StepInvoiceInfo,
	StepClient,
	StepProducts,
	StepPayment,
	StepDelivery,
	StepSignature,
	StepRecap,
	StepDone,
}

// FirstStep and LastStep bound navigation.
const (
	FirstStep = StepInvoiceInfo
	LastStep  = StepDone
)

// Index returns the position of s in Steps, or -1.
func (s Step) Index() int {
	for i, st := range Steps {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of Steps.
func (s Step) Valid() bool { return s.Index() >= 0 }

// Next returns the following step; LastStep returns itself.
func (s Step) Next() Step {
	i := s.Index()
	if i < 0 || i == len(Steps)-1 {
		return s
	}
	return Steps[i+1]
}

// Prev returns the preceding step; FirstStep returns itself.
func (s Step) Prev() Step {
	i := s.Index()
	if i <= 0 {
		return s
	}
	return Steps[i-1]
}
