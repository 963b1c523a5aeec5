package store

import "github.com/amishk599/jobscout/internal/model"

// favoriteRow is one row of the favorites join: an item repeated once per keyword.
type favoriteRow struct {
	id, name, address, imageURL, url, keyword string
}

// favoriteAccumulator folds joined rows back into items, keeping first-seen order.
type favoriteAccumulator struct {
	order    []string
	rows     map[string]favoriteRow
	keywords map[string][]string
}

func (a *favoriteAccumulator) add(r favoriteRow) {
	if a.rows == nil {
		a.rows = make(map[string]favoriteRow)
		a.keywords = make(map[string][]string)
	}
	if _, ok := a.rows[r.id]; !ok {
		a.order = append(a.order, r.id)
		a.rows[r.id] = r
	}
	if r.keyword != "" {
		a.keywords[r.id] = append(a.keywords[r.id], r.keyword)
	}
}

func (a *favoriteAccumulator) items() []model.Item {
	items := make([]model.Item, 0, len(a.order))
	for _, id := range a.order {
		r := a.rows[id]
		items = append(items, model.NewItemBuilder().
			SetID(r.id).
			SetName(r.name).
			SetAddress(r.address).
			SetImageURL(r.imageURL).
			SetURL(r.url).
			SetKeywords(model.NewKeywordSet(a.keywords[id]...)).
			Build())
	}
	return items
}
