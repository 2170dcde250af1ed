package oracle

import (
	"context"
	"sync"
)

// resolver.go - параллельное разрешение цен для множества токенов
//
// Fan-out ограничен семафором: не больше N запросов к оракулу
// одновременно. Результаты сливаются по мере готовности; провал
// одного адреса никогда не роняет всю пачку.

// PriceFetcher - источник цены одного токена
type PriceFetcher interface {
	FetchPrice(ctx context.Context, tokenAddress string) (float64, bool)
}

// Resolver разрешает цены пачки токенов с ограниченным параллелизмом
type Resolver struct {
	fetcher     PriceFetcher
	concurrency int
}

// NewResolver создает resolver поверх источника цен.
// concurrency < 1 поднимается до 1.
func NewResolver(fetcher PriceFetcher, concurrency int) *Resolver {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Resolver{
		fetcher:     fetcher,
		concurrency: concurrency,
	}
}

type priceResult struct {
	address string
	price   float64
	ok      bool
}

// ResolvePrices запрашивает цены всех адресов и возвращает частичную
// карту адрес -> цена. Адреса без цены в карте отсутствуют.
func (r *Resolver) ResolvePrices(ctx context.Context, addresses []string) map[string]float64 {
	prices := make(map[string]float64, len(addresses))
	if len(addresses) == 0 {
		return prices
	}

	sem := make(chan struct{}, r.concurrency)
	results := make(chan priceResult, len(addresses))

	var wg sync.WaitGroup
	for _, addr := range addresses {
		wg.Add(1)
		go func(address string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			price, ok := r.fetcher.FetchPrice(ctx, address)
			results <- priceResult{address: address, price: price, ok: ok}
		}(addr)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		if res.ok && res.price > 0 {
			prices[res.address] = res.price
		}
	}

	return prices
}

// FetchPrice пробрасывает одиночный запрос к источнику цен.
// Позволяет использовать Resolver и как источник референсной цены.
func (r *Resolver) FetchPrice(ctx context.Context, tokenAddress string) (float64, bool) {
	return r.fetcher.FetchPrice(ctx, tokenAddress)
}
