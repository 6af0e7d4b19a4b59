package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"jpeg_swap/internal/app/port"
	"jpeg_swap/internal/domain/entity"
	"jpeg_swap/internal/pkg/metrics"
	"jpeg_swap/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

var errEmptyTokenURI = errors.New("empty token URI")

// tokenEnumerator lists a holder's tokens by owner index and enriches each one
// with metadata. Every per-token failure reduces to a placeholder.
type tokenEnumerator struct {
	metadata      port.MetadataFetcher
	logger        port.Logger
	gateway       string
	defaultImage  string
	maxConcurrent int
	maxTokens     int
}

// enumeration describes one owner-index walk.
type enumeration struct {
	query      string
	label      string
	collection common.Address
	owner      common.Address
}

// indexSlot is the outcome for one owner index. Skipped slots are dropped.
type indexSlot struct {
	skipped bool
	result  entity.ItemResult
}

// enumerate returns the owner's tokens in ascending owner-index order. A failed
// balance read yields an empty list; a failed index lookup drops that index.
// Balances above maxTokens are walked only up to maxTokens.
func (e *tokenEnumerator) enumerate(ctx context.Context, nft port.EnumerableOwnership, en enumeration) []entity.NFTItem {
	balance, err := nft.BalanceOf(ctx, en.owner)
	if err != nil {
		e.readFailure(&entity.ReadFailure{Query: en.query, Target: en.collection.Hex(), Method: "balanceOf", Err: err}, "contract")
		return []entity.NFTItem{}
	}
	if balance.Sign() < 0 {
		e.readFailure(&entity.ReadFailure{Query: en.query, Target: en.collection.Hex(), Method: "balanceOf",
			Err: errors.New("balance out of range: " + balance.String())}, "contract")
		return []entity.NFTItem{}
	}

	count := e.maxTokens
	if balance.Cmp(big.NewInt(int64(e.maxTokens))) <= 0 {
		count = int(balance.Int64())
	} else {
		e.readFailure(&entity.ReadFailure{Query: en.query, Target: en.collection.Hex(), Method: "balanceOf",
			Err: fmt.Errorf("balance %s exceeds limit of %d tokens", balance, e.maxTokens)}, "contract")
	}
	slots := make([]indexSlot, count)

	var g errgroup.Group
	g.SetLimit(e.maxConcurrent)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			slots[i] = e.loadIndex(ctx, nft, en, i)
			return nil
		})
	}
	_ = g.Wait()

	results := make([]entity.ItemResult, 0, count)
	for _, slot := range slots {
		if slot.skipped {
			continue
		}
		results = append(results, slot.result)
	}
	return entity.ResolveItems(results, en.label, e.defaultImage)
}

func (e *tokenEnumerator) loadIndex(ctx context.Context, nft port.EnumerableOwnership, en enumeration, index int) indexSlot {
	tokenID, err := nft.TokenOfOwnerByIndex(ctx, en.owner, big.NewInt(int64(index)))
	if err != nil {
		e.readFailure(&entity.ReadFailure{Query: en.query, Target: en.collection.Hex(), Method: "tokenOfOwnerByIndex", Err: err}, "contract")
		return indexSlot{skipped: true}
	}
	return indexSlot{result: e.enrich(ctx, nft, en, tokenID)}
}

func (e *tokenEnumerator) enrich(ctx context.Context, nft port.EnumerableOwnership, en enumeration, tokenID *big.Int) entity.ItemResult {
	id := tokenID.String()

	uri, err := nft.TokenURI(ctx, tokenID)
	if err != nil {
		rf := &entity.ReadFailure{Query: en.query, Target: en.collection.Hex(), Method: "tokenURI", TokenID: id, Err: err}
		e.readFailure(rf, "contract")
		return entity.FailedItem(id, rf)
	}
	if uri == "" {
		rf := &entity.ReadFailure{Query: en.query, Target: en.collection.Hex(), Method: "tokenURI", TokenID: id, Err: errEmptyTokenURI}
		e.readFailure(rf, "contract")
		return entity.FailedItem(id, rf)
	}

	metadataURL := utils.ResolveIPFSWithGateway(uri, e.gateway)
	meta, err := e.metadata.FetchMetadata(ctx, metadataURL)
	if err != nil {
		rf := &entity.ReadFailure{Query: en.query, Target: metadataURL, Method: "metadata", TokenID: id, Err: err}
		e.readFailure(rf, "metadata")
		return entity.FailedItem(id, rf)
	}

	item := entity.NFTItem{
		TokenID:     id,
		ImageURL:    utils.ResolveIPFSWithGateway(meta.Image, e.gateway),
		DisplayName: meta.Name,
	}
	if item.DisplayName == "" {
		item.DisplayName = entity.PlaceholderName(en.label, id)
	}
	if item.ImageURL == "" {
		item.ImageURL = e.defaultImage
	}
	return entity.LoadedItem(item)
}

func (e *tokenEnumerator) readFailure(rf *entity.ReadFailure, source string) {
	metrics.ReadFailures.WithLabelValues(rf.Query, source).Inc()
	e.logger.Warn("Read failed, using fallback",
		"query", rf.Query, "target", rf.Target, "method", rf.Method, "token_id", rf.TokenID, "error", rf.Err)
}
