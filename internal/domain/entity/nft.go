package entity

import "fmt"

// Placeholder labels used when a token's metadata cannot be loaded.
const (
	NFTLabel          = "NFT"
	StakeReceiptLabel = "Stake Receipt"
)

// NFTItem is one token of a collection. TokenID is the natural key within a collection.
type NFTItem struct {
	TokenID     string `json:"tokenId"`
	ImageURL    string `json:"image"`
	DisplayName string `json:"name"`
	Placeholder bool   `json:"placeholder"`
}

// TokenMetadata is the subset of ERC-721 metadata JSON the dashboard uses.
type TokenMetadata struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// ItemResult is the outcome of enriching a single token: either a loaded item or
// the error that prevented it. It always reduces to an NFTItem via Resolve.
type ItemResult struct {
	TokenID string
	Item    NFTItem
	Err     error
}

// LoadedItem wraps a successfully enriched item.
func LoadedItem(item NFTItem) ItemResult {
	return ItemResult{TokenID: item.TokenID, Item: item}
}

// FailedItem records that enrichment of tokenID failed.
func FailedItem(tokenID string, err error) ItemResult {
	return ItemResult{TokenID: tokenID, Err: err}
}

// Resolve returns the loaded item, or a placeholder built from label and defaultImage.
func (r ItemResult) Resolve(label, defaultImage string) NFTItem {
	if r.Err == nil {
		return r.Item
	}
	return PlaceholderItem(r.TokenID, label, defaultImage)
}

// PlaceholderItem builds the "<label> #<tokenId>" fallback item.
func PlaceholderItem(tokenID, label, defaultImage string) NFTItem {
	return NFTItem{
		TokenID:     tokenID,
		ImageURL:    defaultImage,
		DisplayName: PlaceholderName(label, tokenID),
		Placeholder: true,
	}
}

// PlaceholderName formats the synthesized display name for a token.
func PlaceholderName(label, tokenID string) string {
	return fmt.Sprintf("%s #%s", label, tokenID)
}

// ResolveItems reduces results to items, preserving order.
func ResolveItems(results []ItemResult, label, defaultImage string) []NFTItem {
	items := make([]NFTItem, 0, len(results))
	for _, r := range results {
		items = append(items, r.Resolve(label, defaultImage))
	}
	return items
}
