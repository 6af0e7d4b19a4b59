package entity

import "math/big"

// PoolDescriptor is a swap pool as read from chain. It is never patched locally;
// a changed pool only shows up through a new read.
type PoolDescriptor struct {
	Address              string   `json:"address"`
	AddressDisplay       string   `json:"addressDisplay"`
	NFTCollectionAddress string   `json:"nftCollectionAddress"`
	SwapFeeWei           *big.Int `json:"swapFeeWei"`
	SwapFee              string   `json:"swapFee"`
}

// PoolList is the factory registry as seen by the pool list view.
type PoolList struct {
	Pools          []string `json:"pools"`
	TotalPools     int      `json:"totalPools"`
	FactoryAddress string   `json:"factoryAddress"`
	NetworkName    string   `json:"networkName"`
	Available      bool     `json:"available"`
}

// PoolInventory is the per-pool view: NFTs held by the pool and, when a viewer
// is known, the viewer's NFTs of the same collection.
type PoolInventory struct {
	Pool      PoolDescriptor `json:"pool"`
	PoolNFTs  []NFTItem      `json:"poolNfts"`
	UserNFTs  []NFTItem      `json:"userNfts"`
	Available bool           `json:"available"`
}

// RegistryEntry pairs a pool with the collection it trades.
type RegistryEntry struct {
	Address    string `json:"address"`
	Collection string `json:"collection"`
}

// FactoryRegistry is the factory panel view.
type FactoryRegistry struct {
	FactoryAddress string          `json:"factoryAddress"`
	Owner          string          `json:"owner"`
	IsOwner        bool            `json:"isOwner"`
	Pools          []RegistryEntry `json:"pools"`
	TotalPools     int             `json:"totalPools"`
	Available      bool            `json:"available"`
}
