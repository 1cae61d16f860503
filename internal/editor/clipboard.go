package editor

import (
	"encoding/json"

	"github.com/atotto/clipboard"

	"notecanvas/internal/element"
)

// pasteOffset displaces pasted elements so they never land exactly on their
// source.
const pasteOffset = 20

// clipPayload is the interchange format written to the system clipboard.
type clipPayload struct {
	App      string            `json:"app"`
	Elements []element.Element `json:"elements"`
}

const clipApp = "notecanvas"

// CopySelection serializes the selected elements to the system clipboard.
func (c *Controller) CopySelection() error {
	ids := c.SelectedIDs()
	if len(ids) == 0 {
		return nil
	}
	payload := clipPayload{App: clipApp}
	for _, id := range ids {
		if el, ok := c.store.Get(id); ok {
			payload.Elements = append(payload.Elements, el)
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return clipboard.WriteAll(string(data))
}

// Paste recreates clipboard elements as new server-side elements, offset
// from their source and stacked above everything else. Clipboard content
// from other applications is ignored.
func (c *Controller) Paste() error {
	text, err := clipboard.ReadAll()
	if err != nil {
		return err
	}
	var payload clipPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil || payload.App != clipApp {
		return nil
	}

	z := c.store.MaxZ()
	for _, el := range payload.Elements {
		el.ID = 0
		el.X += pasteOffset
		el.Y += pasteOffset
		z++
		el.ZIndex = z
		el.Owner = c.owner
		c.submitCreate(el)
	}
	return nil
}
