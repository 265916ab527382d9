package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// DesignCompletedPrefix is the canned acknowledgement digitizers send with finished work.
const DesignCompletedPrefix = "Design completed:"

// predecessors lists, per target, the statuses an order may come from.
// AtDigitizer is decided by the rejection flag, see expectedDigitizerPredecessor.
var predecessors = map[Status][]Status{
	StatusAtDigitizer:      {StatusAtTeam, StatusTeamReview, StatusAtDigitizer},
	StatusTeamReview:       {StatusAtDigitizer},
	StatusAtVendor:         {StatusTeamReview, StatusPartiallyShipped},
	StatusPartiallyShipped: {StatusAtVendor, StatusPartiallyShipped, StatusOutForDelivery},
	StatusOutForDelivery:   {StatusAtVendor, StatusPartiallyShipped},
}

// shippableStatuses are the statuses in which a shipment may be reported.
var shippableStatuses = []Status{StatusAtVendor, StatusPartiallyShipped, StatusOutForDelivery}

// AllowedPredecessors returns the statuses from which target may be entered.
func AllowedPredecessors(target Status) []Status {
	return slices.Clone(predecessors[target])
}

// CanTransition reports whether an order in from may move to a different status to.
func CanTransition(from, to Status, rejection bool) bool {
	if from == to {
		return false
	}
	if to == StatusAtDigitizer {
		return from == expectedDigitizerPredecessor(rejection)
	}
	return slices.Contains(predecessors[to], from)
}

func expectedDigitizerPredecessor(rejection bool) Status {
	if rejection {
		return StatusTeamReview
	}
	return StatusAtTeam
}

// TransitionRequest describes a requested status change and its side effects.
// Nil pointer fields leave the stored value untouched. A nil Shipment means no
// shipment was reported; a non-nil empty Shipment is rejected.
type TransitionRequest struct {
	Target          Status
	Note            string
	NoteAudience    Role
	Rejection       bool
	DigitizerID     *string
	VendorID        *string
	Priority        *Priority
	DigitizerStatus *string
	VendorStatus    *string
	Shipment        []ShipmentEntry
	AttachmentCount int
	Actor           User

	// Display names resolved by the caller for derived notes.
	DigitizerName string
	VendorName    string
}

// TransitionPlan is a validated request ready to be applied to the order it was planned against.
type TransitionPlan struct {
	From   Status
	Target Status

	req            TransitionRequest
	reassigning    bool
	subStatus      bool
	priorityChange bool
	shipment       bool
}

// Reassigning reports whether the plan moves the order to another digitizer.
func (p *TransitionPlan) Reassigning() bool { return p.reassigning }

// SetDisplayNames provides the names used by derived routing notes.
func (p *TransitionPlan) SetDisplayNames(digitizer, vendor string) {
	p.req.DigitizerName = digitizer
	p.req.VendorName = vendor
}

// Shipment reports whether the plan applies shipped quantities.
func (p *TransitionPlan) Shipment() bool { return p.shipment }

// PlanTransition validates req against the current order state. It never
// mutates the order.
func PlanTransition(o *Order, req TransitionRequest) (*TransitionPlan, error) {
	if err := req.Actor.Validate(); err != nil {
		return nil, err
	}
	if !req.Target.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Target)
	}
	if req.NoteAudience != "" && !ValidAudience(req.NoteAudience) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAudience, req.NoteAudience)
	}
	if req.Priority != nil && !req.Priority.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, *req.Priority)
	}

	plan := &TransitionPlan{From: o.Status, Target: req.Target, req: req}
	plan.reassigning = o.Status == StatusAtDigitizer && req.Target == StatusAtDigitizer &&
		req.DigitizerID != nil && *req.DigitizerID != o.DigitizerID
	plan.subStatus = (req.DigitizerStatus != nil && *req.DigitizerStatus != o.DigitizerStatus) ||
		(req.VendorStatus != nil && *req.VendorStatus != o.VendorStatus)
	plan.priorityChange = req.Priority != nil && *req.Priority != o.Priority

	if plan.priorityChange && !canChangePriority(req.Actor.Role) {
		return nil, fmt.Errorf("%w: %s", ErrPriorityForbidden, req.Actor.Role)
	}

	if req.Shipment != nil {
		items := o.LineItems
		if len(items) == 0 {
			items = ParseProductDescription(o.ProductDescription)
		}
		if err := ValidateShipment(items, req.Shipment); err != nil {
			return nil, err
		}
		if !slices.Contains(shippableStatuses, o.Status) {
			return nil, fmt.Errorf("%w: cannot ship from %s", ErrIllegalTransition, o.Status)
		}
		plan.shipment = true
	}

	if o.Status == req.Target {
		if !plan.reassigning && !plan.subStatus && !plan.priorityChange && !plan.shipment && req.AttachmentCount == 0 {
			return nil, ErrAlreadyInState
		}
		return plan, nil
	}
	if !CanTransition(o.Status, req.Target, req.Rejection) {
		if req.Target == StatusAtDigitizer {
			return nil, fmt.Errorf("%w: %s to %s requires the order to be at %s", ErrIllegalTransition,
				o.Status, req.Target, expectedDigitizerPredecessor(req.Rejection))
		}
		return nil, fmt.Errorf("%w: %s to %s", ErrIllegalTransition, o.Status, req.Target)
	}
	return plan, nil
}

func canChangePriority(role Role) bool {
	return role.Privileged() || role == RoleSales
}

// Apply mutates the order according to the plan. attachments are the files
// already stored for this request; noteID is used if a note is produced.
func (p *TransitionPlan) Apply(o *Order, attachments []Attachment, noteID string, now time.Time) error {
	req := p.req
	o.AssociateUser(req.Actor)
	for _, a := range attachments {
		o.AddAttachment(a.ID, a.Name, a.URL, a.UploadedBy, now)
	}

	fullyShipped := false
	if p.shipment {
		o.EnsureLineItems()
		done, err := o.ApplyShipment(req.Shipment)
		if err != nil {
			return err
		}
		fullyShipped = done
		if done {
			o.Status = StatusOutForDelivery
		} else {
			o.Status = StatusPartiallyShipped
		}
	} else {
		o.Status = p.Target
	}

	if req.DigitizerID != nil {
		o.DigitizerID = *req.DigitizerID
	}
	if req.VendorID != nil {
		o.VendorID = *req.VendorID
	}
	if req.Priority != nil {
		o.Priority = *req.Priority
	}
	if req.DigitizerStatus != nil {
		o.DigitizerStatus = *req.DigitizerStatus
	}
	if req.VendorStatus != nil {
		o.VendorStatus = *req.VendorStatus
	}

	if o.Status != p.From {
		switch o.Status {
		case StatusAtDigitizer:
			o.DigitizerStatus = SubStatusPending
		case StatusAtVendor:
			o.VendorStatus = SubStatusPending
		}
	}

	content, audience := p.derivedNote(o.Status, fullyShipped)
	if content != "" {
		if _, err := o.AddNote(noteID, content, req.Actor, audience, now); err != nil {
			return err
		}
	}

	if o.Status != p.From {
		o.record(StatusChanged{
			BaseEvent:  BaseEvent{Timestamp: now},
			OrderID:    o.ID,
			FromStatus: p.From,
			ToStatus:   o.Status,
			ActorID:    req.Actor.ID,
			ActorRole:  req.Actor.Role,
		})
	}
	o.touch(now)
	return nil
}

func (p *TransitionPlan) derivedNote(status Status, fullyShipped bool) (string, Role) {
	text := strings.TrimSpace(p.req.Note)
	switch {
	case p.shipment:
		head := "Order partially shipped."
		if fullyShipped {
			head = "Order fully shipped."
		}
		return joinNote(head, text), RoleVendor
	case status == StatusAtDigitizer && !p.req.Rejection && (p.From != StatusAtDigitizer || p.reassigning):
		return joinNote("Assigned to "+orFallback(p.req.DigitizerName, "Digitizer"), text), RoleDigitizer
	case status == StatusAtVendor && p.From != StatusAtVendor:
		return joinNote("Sent to "+orFallback(p.req.VendorName, "Vendor"), text), RoleVendor
	case p.From == StatusAtDigitizer && status == StatusTeamReview:
		return strings.TrimSpace(strings.TrimPrefix(text, DesignCompletedPrefix)), RoleDigitizer
	case p.From == StatusAtVendor && status == StatusOutForDelivery:
		return text, RoleVendor
	default:
		audience := p.req.NoteAudience
		if audience == "" {
			audience = RoleTeam
		}
		return text, audience
	}
}

func joinNote(head, text string) string {
	if text == "" {
		return head
	}
	return head + "\n" + text
}

func orFallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
