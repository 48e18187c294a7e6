package page

import (
	"context"
	"fmt"

	"github.com/RedHatProductSecurity/osim/internal/browser"
)

// OpenTrackerManager shows the trackers manager unless it is already open.
func (p *FlawDetail) OpenTrackerManager(ctx context.Context) error {
	if !p.Has(ctx, "trackerManager") {
		if err := p.ClickJS(ctx, Named("showTrackerManagerBtn")); err != nil {
			return err
		}
	}
	_, err := p.WaitVisible(ctx, "trackerManager")
	return err
}

// FilterTrackers narrows the available trackers list.
func (p *FlawDetail) FilterTrackers(ctx context.Context, text string) error {
	return p.SetText(ctx, Named("trackerFilter"), text)
}

// SelectAllTrackers ticks every available tracker.
func (p *FlawDetail) SelectAllTrackers(ctx context.Context) error {
	return p.ClickJS(ctx, Named("trackerSelectAllBtn"))
}

// DeselectAllTrackers clears the tracker selection.
func (p *FlawDetail) DeselectAllTrackers(ctx context.Context) error {
	return p.ClickJS(ctx, Named("trackerDeselectAllBtn"))
}

// SelectTracker toggles the i-th (1-based) available tracker.
func (p *FlawDetail) SelectTracker(ctx context.Context, i int) error {
	boxes, err := p.Elements(ctx, "trackerCheckbox")
	if err != nil {
		return err
	}
	if i < 1 || i > len(boxes) {
		return fmt.Errorf("tracker %d out of range: %d available", i, len(boxes))
	}
	return p.ClickJS(ctx, Handle(boxes[i-1]))
}

// TrackerCount counts the trackers offered by the manager.
func (p *FlawDetail) TrackerCount(ctx context.Context) (int, error) {
	boxes, err := p.Elements(ctx, "trackerCheckbox")
	return len(boxes), err
}

// SelectedTrackerCount counts the ticked trackers.
func (p *FlawDetail) SelectedTrackerCount(ctx context.Context) (int, error) {
	boxes, err := p.Elements(ctx, "trackerCheckbox")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, b := range boxes {
		ok, err := browser.Selected(ctx, b)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// FileTrackers files the selected trackers and waits for confirmation.
func (p *FlawDetail) FileTrackers(ctx context.Context) error {
	if err := p.ClickJS(ctx, Named("fileTrackersBtn")); err != nil {
		return err
	}
	return p.WaitMessage(ctx, "trackersFiledMsg")
}
