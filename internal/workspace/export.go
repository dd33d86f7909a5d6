package workspace

import (
	"github.com/jonathan/cranium/internal/placement"
	"github.com/jonathan/cranium/internal/types"
)

// Export renders the chosen container and every custom section, resolving
// pending edits over canonical content.
func (w *Workspace) Export() types.ExportDocument {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc := types.ExportDocument{
		Items:    w.exportItems(placement.Chosen),
		Sections: []types.ExportSection{},
	}
	for _, sec := range w.sections.Sections() {
		out := types.ExportSection{Title: sec.Title, Items: make([]types.ExportSectionItem, 0, len(sec.Items))}
		for _, it := range sec.Items {
			out.Items = append(out.Items, types.ExportSectionItem{
				Payload: types.ExportText{Text: w.overlay.Resolve(it).Text()},
			})
		}
		doc.Sections = append(doc.Sections, out)
	}
	return doc
}

// ExportContainer renders one built-in container in order.
func (w *Workspace) ExportContainer(name string) ([]types.ExportItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.items.HasContainer(name) {
		return nil, &ReferenceError{Op: "export", ID: name}
	}
	return w.exportItems(name), nil
}

func (w *Workspace) exportItems(container string) []types.ExportItem {
	items := w.items.Items(container)
	out := make([]types.ExportItem, 0, len(items))
	for _, it := range items {
		resolved := w.overlay.Resolve(it)
		out = append(out, types.ExportItem{Kind: resolved.Kind, Payload: resolved.Payload})
	}
	return out
}
