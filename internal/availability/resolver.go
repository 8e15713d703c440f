package availability

import (
	"time"

	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

// ResolveCell returns the state of resourceID over s on the snapshot's date.
//
// Precedence: facility-wide closures, resource closures, event blocks, placed
// bookings, pending requests, free. The first match in each tier wins. The
// function is pure and total; an unknown resource simply resolves to Free.
func ResolveCell(day Day, resourceID string, s slot.Interval) Cell {
	cell := Cell{Slot: s, State: StateFree}

	for _, c := range day.Closures {
		if c.FacilityWide() && slot.Overlaps(c.Interval, s) {
			cell.State, cell.Title, cell.SourceID = StateClosed, c.Title, c.ID
			return cell
		}
	}
	for _, c := range day.Closures {
		if !c.FacilityWide() && *c.ResourceID == resourceID && slot.Overlaps(c.Interval, s) {
			cell.State, cell.Title, cell.SourceID = StateClosed, c.Title, c.ID
			return cell
		}
	}
	for _, b := range day.Blocks {
		if b.ResourceID == resourceID && slot.Overlaps(b.Interval, s) {
			cell.State, cell.Reason, cell.SourceID = StateBlocked, b.Reason, b.ID
			return cell
		}
	}
	for _, r := range day.Reservations {
		if r.Placed && r.ResourceID == resourceID && slot.Overlaps(r.Interval, s) {
			cell.State, cell.ReservationID = StateBooked, r.ID
			return cell
		}
	}
	for _, r := range day.Reservations {
		if !r.Placed && r.ResourceID == resourceID && slot.Overlaps(r.Interval, s) {
			cell.State, cell.ReservationID = StatePending, r.ID
			return cell
		}
	}
	return cell
}

// Grid resolves every operating-window slot for each resource.
func Grid(day Day, resourceIDs []string) []Row {
	slots := slot.Grid()
	rows := make([]Row, 0, len(resourceIDs))
	for _, id := range resourceIDs {
		cells := make([]Cell, len(slots))
		for i, s := range slots {
			cells[i] = ResolveCell(day, id, s)
		}
		rows = append(rows, Row{ResourceID: id, Cells: cells})
	}
	return rows
}

// Placement describes a write that wants to occupy an interval.
type Placement struct {
	ResourceID string
	Interval   slot.Interval
	// ExcludeID skips the record being re-placed (confirming an existing request).
	ExcludeID string
	// RequestedAt is when the booking attempt was first made. Blocks created
	// after it are advisory only.
	RequestedAt time.Time
	// Placed is true when the write puts the record into a placed state.
	// Unplaced requests may overlap other unplaced requests.
	Placed bool
}

// CheckPlacement returns a PlacementConflict error naming the first exclusion
// that forbids p, or nil.
func CheckPlacement(day Day, p Placement) error {
	for _, c := range day.Closures {
		if c.FacilityWide() && slot.Overlaps(c.Interval, p.Interval) {
			return apperror.PlacementConflict("closure", c.ID)
		}
	}
	for _, c := range day.Closures {
		if !c.FacilityWide() && c.appliesTo(p.ResourceID) && slot.Overlaps(c.Interval, p.Interval) {
			return apperror.PlacementConflict("closure", c.ID)
		}
	}
	for _, b := range day.Blocks {
		if b.ResourceID != p.ResourceID || !slot.Overlaps(b.Interval, p.Interval) {
			continue
		}
		if p.RequestedAt.IsZero() || !b.CreatedAt.After(p.RequestedAt) {
			return apperror.PlacementConflict("block", b.ID)
		}
	}
	for _, r := range day.Reservations {
		if r.ID == p.ExcludeID || r.ResourceID != p.ResourceID || !r.Placed {
			continue
		}
		if slot.Overlaps(r.Interval, p.Interval) {
			return apperror.PlacementConflict("booking", r.ID)
		}
	}
	return nil
}

// Overlapping lists the reservations on resourceID (or every resource when
// resourceID is empty) that intersect iv.
func Overlapping(day Day, resourceID string, iv slot.Interval) []string {
	var ids []string
	for _, r := range day.Reservations {
		if resourceID != "" && r.ResourceID != resourceID {
			continue
		}
		if slot.Overlaps(r.Interval, iv) {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
