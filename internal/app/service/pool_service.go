package service

import (
	"context"
	"time"

	"jpeg_swap/internal/app/port"
	"jpeg_swap/internal/domain/entity"
	"jpeg_swap/internal/infrastructure/configloader"
	"jpeg_swap/internal/pkg/metrics"
	"jpeg_swap/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
)

// PoolServiceImpl implements port.PoolQueries.
type PoolServiceImpl struct {
	enum           *tokenEnumerator
	logger         port.Logger
	factoryAddress string
	networkName    string
}

// NewPoolService creates a new instance of PoolServiceImpl.
func NewPoolService(cfg *configloader.Config, metadata port.MetadataFetcher, l port.Logger) port.PoolQueries {
	return &PoolServiceImpl{
		enum:           newTokenEnumerator(cfg, metadata, l),
		logger:         l,
		factoryAddress: common.HexToAddress(cfg.Contracts.FactoryAddress).Hex(),
		networkName:    cfg.Network.Name,
	}
}

func newTokenEnumerator(cfg *configloader.Config, metadata port.MetadataFetcher, l port.Logger) *tokenEnumerator {
	maxConcurrent := cfg.Metadata.MaxConcurrentFetches
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &tokenEnumerator{
		metadata:      metadata,
		logger:        l,
		gateway:       cfg.Metadata.IPFSGateway,
		defaultImage:  cfg.Metadata.DefaultImage,
		maxConcurrent: maxConcurrent,
		maxTokens:     cfg.Metadata.MaxTokensPerQuery,
	}
}

// ListPools reads every pool address from the factory in one call.
func (s *PoolServiceImpl) ListPools(ctx context.Context, contracts port.ContractSet) entity.PoolList {
	defer observeQuery("pool_list", time.Now())

	list := entity.PoolList{
		Pools:          []string{},
		FactoryAddress: s.factoryAddress,
		NetworkName:    s.networkName,
	}

	pools, err := contracts.Factory().GetAllPools(ctx)
	if err != nil {
		s.enum.readFailure(&entity.ReadFailure{Query: "pool_list", Target: s.factoryAddress, Method: "getAllPools", Err: err}, "contract")
		return list
	}

	for _, p := range pools {
		list.Pools = append(list.Pools, p.Hex())
	}
	list.TotalPools = len(list.Pools)
	list.Available = true
	s.logger.Debug("Pool list loaded", "total_pools", list.TotalPools)
	return list
}

// LoadPool reads the pool parameters, the NFTs the pool holds and, when viewer is
// set, the viewer's NFTs of the same collection.
func (s *PoolServiceImpl) LoadPool(ctx context.Context, contracts port.ContractSet, pool, viewer common.Address) entity.PoolInventory {
	defer observeQuery("pool_inventory", time.Now())

	inv := entity.PoolInventory{
		Pool: entity.PoolDescriptor{
			Address:        pool.Hex(),
			AddressDisplay: utils.FormatAddress(pool.Hex()),
		},
		PoolNFTs: []entity.NFTItem{},
		UserNFTs: []entity.NFTItem{},
	}

	swapPool := contracts.SwapPool(pool)
	collection, err := swapPool.NFTCollection(ctx)
	if err != nil {
		s.enum.readFailure(&entity.ReadFailure{Query: "pool_inventory", Target: pool.Hex(), Method: "nftCollection", Err: err}, "contract")
		return inv
	}
	inv.Pool.NFTCollectionAddress = collection.Hex()

	fee, err := swapPool.SwapFeeInWei(ctx)
	if err != nil {
		s.enum.readFailure(&entity.ReadFailure{Query: "pool_inventory", Target: pool.Hex(), Method: "swapFeeInWei", Err: err}, "contract")
	} else {
		inv.Pool.SwapFeeWei = fee
		inv.Pool.SwapFee = utils.FormatEther(fee)
	}

	nft := contracts.Collection(collection)
	inv.PoolNFTs = s.enum.enumerate(ctx, nft, enumeration{
		query:      "pool_inventory",
		label:      entity.NFTLabel,
		collection: collection,
		owner:      pool,
	})
	if viewer != (common.Address{}) {
		inv.UserNFTs = s.enum.enumerate(ctx, nft, enumeration{
			query:      "user_inventory",
			label:      entity.NFTLabel,
			collection: collection,
			owner:      viewer,
		})
	}
	inv.Available = true
	s.logger.Debug("Pool inventory loaded", "pool", pool.Hex(), "pool_nfts", len(inv.PoolNFTs), "user_nfts", len(inv.UserNFTs))
	return inv
}

// FactoryRegistry reads the factory owner and every pool with its collection.
// Pools whose collection cannot be read are left out.
func (s *PoolServiceImpl) FactoryRegistry(ctx context.Context, contracts port.ContractSet, viewer common.Address) entity.FactoryRegistry {
	defer observeQuery("factory_registry", time.Now())

	reg := entity.FactoryRegistry{
		FactoryAddress: s.factoryAddress,
		Pools:          []entity.RegistryEntry{},
	}

	factory := contracts.Factory()
	owner, err := factory.Owner(ctx)
	if err != nil {
		s.enum.readFailure(&entity.ReadFailure{Query: "factory_registry", Target: s.factoryAddress, Method: "owner", Err: err}, "contract")
		return reg
	}
	reg.Owner = owner.Hex()
	reg.IsOwner = viewer != (common.Address{}) && owner == viewer

	pools, err := factory.GetAllPools(ctx)
	if err != nil {
		s.enum.readFailure(&entity.ReadFailure{Query: "factory_registry", Target: s.factoryAddress, Method: "getAllPools", Err: err}, "contract")
		return reg
	}

	for _, p := range pools {
		collection, err := contracts.SwapPool(p).NFTCollection(ctx)
		if err != nil {
			s.enum.readFailure(&entity.ReadFailure{Query: "factory_registry", Target: p.Hex(), Method: "nftCollection", Err: err}, "contract")
			continue
		}
		reg.Pools = append(reg.Pools, entity.RegistryEntry{Address: p.Hex(), Collection: collection.Hex()})
	}
	reg.TotalPools = len(reg.Pools)
	reg.Available = true
	return reg
}

func observeQuery(query string, start time.Time) {
	metrics.QueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}
