package model

import (
	"encoding/json"
	"sort"
)

// KeywordSet is an unordered set of unique keyword strings.
type KeywordSet map[string]struct{}

// NewKeywordSet builds a set from terms, collapsing duplicates.
func NewKeywordSet(terms ...string) KeywordSet {
	s := make(KeywordSet, len(terms))
	for _, t := range terms {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether term is in the set.
func (s KeywordSet) Has(term string) bool {
	_, ok := s[term]
	return ok
}

// Slice returns the terms in no particular order.
func (s KeywordSet) Slice() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	return out
}

// Sorted returns the terms in lexical order. Used for display only.
func (s KeywordSet) Sorted() []string {
	out := s.Slice()
	sort.Strings(out)
	return out
}

func (s KeywordSet) clone() KeywordSet {
	c := make(KeywordSet, len(s))
	for t := range s {
		c[t] = struct{}{}
	}
	return c
}

// Item is one job posting. It has no setters: every Item comes out of
// ItemBuilder.Build and is never changed afterwards.
type Item struct {
	id       string
	name     string
	address  string
	keywords KeywordSet
	imageURL string
	url      string
}

func (i Item) ID() string       { return i.id }
func (i Item) Name() string     { return i.name }
func (i Item) Address() string  { return i.address }
func (i Item) ImageURL() string { return i.imageURL }
func (i Item) URL() string      { return i.url }

// Keywords returns a copy of the item's keyword set.
func (i Item) Keywords() KeywordSet {
	return i.keywords.clone()
}

// ItemBuilder accumulates fields for a single Item. Unset strings build as ""
// and unset keywords as an empty set. The builder performs no validation.
type ItemBuilder struct {
	id       string
	name     string
	address  string
	keywords KeywordSet
	imageURL string
	url      string
}

// NewItemBuilder returns an empty builder.
func NewItemBuilder() *ItemBuilder {
	return &ItemBuilder{}
}

func (b *ItemBuilder) SetID(id string) *ItemBuilder {
	b.id = id
	return b
}

func (b *ItemBuilder) SetName(name string) *ItemBuilder {
	b.name = name
	return b
}

func (b *ItemBuilder) SetAddress(address string) *ItemBuilder {
	b.address = address
	return b
}

// SetKeywords records the keyword set. The set is copied at Build time, so
// later changes to the caller's map do not reach already-built items.
func (b *ItemBuilder) SetKeywords(keywords KeywordSet) *ItemBuilder {
	b.keywords = keywords
	return b
}

func (b *ItemBuilder) SetImageURL(imageURL string) *ItemBuilder {
	b.imageURL = imageURL
	return b
}

func (b *ItemBuilder) SetURL(url string) *ItemBuilder {
	b.url = url
	return b
}

// Build snapshots the builder's current values into a new Item.
func (b *ItemBuilder) Build() Item {
	return Item{
		id:       b.id,
		name:     b.name,
		address:  b.address,
		keywords: b.keywords.clone(),
		imageURL: b.imageURL,
		url:      b.url,
	}
}

// ItemView is the external JSON shape of an Item.
type ItemView struct {
	ItemID   string   `json:"item_id"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Keywords []string `json:"keywords"`
	ImageURL string   `json:"image_url"`
	URL      string   `json:"url"`
	Favorite *bool    `json:"favorite,omitempty"`
}

// View converts the item into its JSON view. Keyword order is unspecified.
func (i Item) View() ItemView {
	return ItemView{
		ItemID:   i.id,
		Name:     i.name,
		Address:  i.address,
		Keywords: i.keywords.Slice(),
		ImageURL: i.imageURL,
		URL:      i.url,
	}
}

// MarshalJSON encodes the item as its external view.
func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.View())
}

// FavoriteView is the item's view flagged with favorite=true, as used for
// favorites listings.
func FavoriteView(i Item) ItemView {
	return MarkedView(i, true)
}

// MarkedView is the item's view with an explicit favorite flag.
func MarkedView(i Item, favorite bool) ItemView {
	v := i.View()
	v.Favorite = &favorite
	return v
}

// Item rebuilds an Item from a decoded view. Missing JSON fields decode to "".
func (v ItemView) Item() Item {
	return NewItemBuilder().
		SetID(v.ItemID).
		SetName(v.Name).
		SetAddress(v.Address).
		SetKeywords(NewKeywordSet(v.Keywords...)).
		SetImageURL(v.ImageURL).
		SetURL(v.URL).
		Build()
}
