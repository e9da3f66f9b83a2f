package booking

import "bookingdesk/pkg/session"

type Color string

const (
	ColorSuccess Color = "success"
	ColorDanger  Color = "danger"
	ColorWarning Color = "warning"
	ColorInfo    Color = "info"
	ColorNeutral Color = "neutral"
)

type BorderStyle string

const (
	BorderSolid  BorderStyle = "solid"
	BorderDashed BorderStyle = "dashed"
)

// Presentation is what a status badge needs.
type Presentation struct {
	Label       string      `json:"label"`
	Icon        string      `json:"icon"`
	Color       Color       `json:"color"`
	BorderStyle BorderStyle `json:"borderStyle"`
}

var defaultPresentation = Presentation{Label: "Pending", Icon: "fa-clock", Color: ColorWarning, BorderStyle: BorderDashed}

var presentations = map[Stage]Presentation{
	StageCompleted:              {Label: "Completed", Icon: "fa-check-circle", Color: ColorSuccess, BorderStyle: BorderSolid},
	StageCancelled:              {Label: "Cancelled", Icon: "fa-ban", Color: ColorDanger, BorderStyle: BorderSolid},
	StageDeclined:               {Label: "Declined", Icon: "fa-times-circle", Color: ColorDanger, BorderStyle: BorderDashed},
	StageExpired:                {Label: "Expired", Icon: "fa-hourglass-end", Color: ColorNeutral, BorderStyle: BorderDashed},
	StagePaid:                   {Label: "Paid", Icon: "fa-check-circle", Color: ColorSuccess, BorderStyle: BorderSolid},
	StageAwaitingVendorApproval: {Label: "Awaiting Vendor Approval", Icon: "fa-clock", Color: ColorWarning, BorderStyle: BorderDashed},
	StageAwaitingVendorResponse: {Label: "Awaiting Response", Icon: "fa-clock", Color: ColorWarning, BorderStyle: BorderDashed},
	StageAwaitingBalance:        {Label: "Balance Due", Icon: "fa-dollar-sign", Color: ColorInfo, BorderStyle: BorderDashed},
	StageAwaitingPayment:        {Label: "Awaiting Payment", Icon: "fa-credit-card", Color: ColorInfo, BorderStyle: BorderDashed},
}

// Vendor-side wording. Icon and color stay in the same family as the client badge.
var vendorLabels = map[Stage]string{
	StageAwaitingVendorApproval: "Awaiting Your Approval",
	StageAwaitingVendorResponse: "Awaiting Your Approval",
	StageAwaitingBalance:        "Awaiting Client Balance",
	StageAwaitingPayment:        "Awaiting Client Payment",
}

// Present looks up the badge for a stage. Unknown stages get the pending badge.
func Present(stage Stage, role session.Role) Presentation {
	p, ok := presentations[stage]
	if !ok {
		return defaultPresentation
	}
	if role == session.RoleVendor {
		if label, ok := vendorLabels[stage]; ok {
			p.Label = label
		}
	}
	return p
}
