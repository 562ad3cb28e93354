package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"shopagent"
	"shopagent/pricing"
)

// ProductMapHandler maps recipe ingredients to priced store products. With
// a live price-lookup collaborator configured it queries per ingredient
// behind a courtesy throttle, falling back to the generator per ingredient
// on lookup failure; without one it maps the whole list in a single batched
// generator call. The stage fails only when zero items could be produced.
type ProductMapHandler struct {
	base
	gen      shopagent.Generator
	searcher shopagent.PriceSearcher
	throttle *shopagent.Throttle
}

func NewProductMapHandler(gen shopagent.Generator, searcher shopagent.PriceSearcher, throttle *shopagent.Throttle) *ProductMapHandler {
	return &ProductMapHandler{
		base:     base{stage: shopagent.StageProductMap},
		gen:      gen,
		searcher: searcher,
		throttle: throttle,
	}
}

func (h *ProductMapHandler) Execute(ctx context.Context, rec *shopagent.Record) {
	if len(rec.Ingredients) == 0 {
		h.handleError(rec, "no ingredients found to map")
		rec.NextStage = shopagent.StageError
		return
	}

	h.logExecution(rec, "Mapping ingredients to store products")

	var items []shopagent.LineItem
	if h.searcher != nil {
		items = h.liveMapping(ctx, rec)
	} else {
		items = h.batchMapping(ctx, rec)
	}

	if len(items) == 0 {
		h.handleError(rec, "failed to map any products")
		rec.NextStage = shopagent.StageError
		return
	}

	rec.LineItems = items
	rec.RecomputeTotal()
	rec.NextStage = shopagent.StageBudget
	h.markCompleted(rec)
	h.logExecution(rec, fmt.Sprintf("Mapped %d products, total: $%.2f", len(items), rec.TotalCost))
}

// liveMapping queries the price-lookup collaborator per ingredient. A
// rejected API key disables the live path for the remainder of the run;
// any per-ingredient failure degrades to a single generator call for that
// ingredient.
func (h *ProductMapHandler) liveMapping(ctx context.Context, rec *shopagent.Record) []shopagent.LineItem {
	items := make([]shopagent.LineItem, 0, len(rec.Ingredients))
	liveDisabled := false

	for _, ingredient := range rec.Ingredients {
		if !liveDisabled {
			item, err := h.lookupOne(ctx, ingredient)
			if err == nil {
				items = append(items, item)
				continue
			}
			if errors.Is(err, shopagent.ErrPriceKeyRejected) {
				liveDisabled = true
				rec.AddMessage(h.stage, "live price lookup key rejected, switching to estimates")
				slog.Warn("STAGE: Price lookup key rejected, disabling live path")
			} else {
				slog.Warn("STAGE: Price lookup failed, estimating", "ingredient", ingredient, "error", err)
			}
		}

		item, err := h.estimateOne(ctx, ingredient)
		if err != nil {
			slog.Warn("STAGE: Failed to estimate product", "ingredient", ingredient, "error", err)
			continue
		}
		items = append(items, item)
	}

	return items
}

func (h *ProductMapHandler) lookupOne(ctx context.Context, ingredient string) (shopagent.LineItem, error) {
	if err := h.throttle.Wait(ctx); err != nil {
		return shopagent.LineItem{}, err
	}

	products, err := h.searcher.Search(ctx, ingredient)
	if err != nil {
		return shopagent.LineItem{}, err
	}
	if len(products) == 0 {
		return shopagent.LineItem{}, fmt.Errorf("no results for %q", ingredient)
	}

	top := products[0]
	price, err := ParsePrice(top.Price)
	if err != nil {
		return shopagent.LineItem{}, err
	}

	quantity := top.Size
	if quantity == "" {
		quantity = "1 item"
	}

	return shopagent.LineItem{
		Name:        top.Title,
		Quantity:    quantity,
		Price:       price,
		Category:    pricing.CategoryFor(ingredient),
		LiveSourced: true,
	}, nil
}

func (h *ProductMapHandler) estimateOne(ctx context.Context, ingredient string) (shopagent.LineItem, error) {
	out, err := h.gen.Generate(ctx, simpleProductPrompt([]string{ingredient}))
	if err != nil {
		return shopagent.LineItem{}, err
	}

	items, err := ParseLabeledLineItems(out)
	if err != nil {
		return shopagent.LineItem{}, err
	}
	return items[0], nil
}

// batchMapping maps all ingredients in one generator call expecting a JSON
// array, retrying once in the fixed-label line format.
func (h *ProductMapHandler) batchMapping(ctx context.Context, rec *shopagent.Record) []shopagent.LineItem {
	out, err := h.gen.Generate(ctx, productMapPrompt(rec.Ingredients))
	if err != nil {
		h.handleError(rec, fmt.Sprintf("product mapping call failed: %v", err))
		return nil
	}

	items, perr := ParseLineItemsJSON(out)
	if perr == nil {
		return items
	}
	slog.Warn("STAGE: Product JSON parsing failed, retrying with simpler format", "error", perr)

	out, err = h.gen.Generate(ctx, simpleProductPrompt(rec.Ingredients))
	if err != nil {
		h.handleError(rec, fmt.Sprintf("product mapping fallback call failed: %v", err))
		return nil
	}

	items, perr = ParseLabeledLineItems(out)
	if perr != nil {
		slog.Warn("STAGE: Labeled product parsing failed", "error", perr)
		return nil
	}
	return items
}
