package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/alphawing/brokerage/internal"
	marketDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/market"
	"github.com/alphawing/brokerage/internal/indicators"
	"github.com/alphawing/brokerage/internal/transport"
	"github.com/alphawing/brokerage/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Stats Service", func() {
	var (
		repo    *fakeRepo
		service *Service
		ctx     context.Context
		now     time.Time
	)

	bar := func(day int, close float64) marketDatamodel.Historical {
		return marketDatamodel.Historical{
			ID:        int64(day),
			TickerID:  7,
			Symbol:    "AAPL",
			Open:      close - 0.004,
			High:      close + 1.2345,
			Low:       close - 1.2345,
			Close:     close,
			Timestamp: time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
			Source:    "POLYGON",
			Market:    "stocks",
		}
	}

	ginkgo.BeforeEach(func() {
		repo = &fakeRepo{}
		service = NewService(repo, logger.Discard())
		now = time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)
		service.now = func() time.Time { return now }
		ctx = context.Background()
	})

	ginkgo.Describe("defaults", func() {
		ginkgo.It("should query the last 100 days of POLYGON bars", func() {
			_, err := service.Data(ctx, Params{TickerID: 7})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(repo.query.TickerID).To(gomega.Equal(int64(7)))
			gomega.Expect(repo.query.Source).To(gomega.Equal("POLYGON"))
			gomega.Expect(repo.query.From).To(gomega.Equal(time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)))
			gomega.Expect(repo.query.To).To(gomega.Equal(time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)))
		})

		ginkgo.It("should add MA_50 when no indicators are requested", func() {
			repo.bars = []marketDatamodel.Historical{bar(1, 10), bar(2, 11)}
			rows, err := service.Data(ctx, Params{TickerID: 7})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(rows[0].Indicators).To(gomega.HaveLen(1))
			gomega.Expect(rows[0].Indicators[0].Name).To(gomega.Equal("MA_50"))
			gomega.Expect(rows[0].Indicators[0].Value).To(gomega.BeNil())
		})

		ginkgo.It("should add nothing for an explicit empty list", func() {
			repo.bars = []marketDatamodel.Historical{bar(1, 10)}
			rows, err := service.Data(ctx, Params{TickerID: 7, Indicators: []indicators.Directive{}})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(rows[0].Indicators).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("validation", func() {
		ginkgo.It("should require a ticker", func() {
			_, err := service.Data(ctx, Params{})
			gomega.Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(gomega.BeTrue())
			gomega.Expect(repo.calls).To(gomega.BeZero())
		})

		ginkgo.It("should reject an inverted range", func() {
			_, err := service.Data(ctx, Params{
				TickerID: 7,
				FromDate: NewDate(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)),
				ToDate:   NewDate(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
			})
			gomega.Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(gomega.BeTrue())
		})
	})

	ginkgo.It("should round prices and attach indicator columns", func() {
		repo.bars = []marketDatamodel.Historical{bar(1, 100), bar(2, 110), bar(3, 121)}
		rows, err := service.Data(ctx, Params{
			TickerID:   7,
			Indicators: []indicators.Directive{{Name: "ma", Period: 2}, {Name: "returns"}},
		})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(rows).To(gomega.HaveLen(3))
		gomega.Expect(rows[0].Open).To(gomega.Equal(100.0))
		gomega.Expect(rows[0].High).To(gomega.Equal(101.23))

		ma := rows[2].Indicators[0]
		gomega.Expect(ma.Name).To(gomega.Equal("MA_2"))
		gomega.Expect(*ma.Value).To(gomega.Equal(115.5))
		ret := rows[1].Indicators[1]
		gomega.Expect(ret.Name).To(gomega.Equal("returns"))
		gomega.Expect(*ret.Value).To(gomega.Equal(0.1))
	})

	ginkgo.It("should hide store failures behind an internal error", func() {
		repo.err = errors.New("connection reset")
		_, err := service.Data(ctx, Params{TickerID: 7})
		gomega.Expect(internal.IsType(err, internal.ErrorTypeInternal)).To(gomega.BeTrue())
	})

	ginkgo.Describe("Handler", func() {
		var handler *Handler

		ginkgo.BeforeEach(func() {
			handler = NewHandler(transport.NewBaseHandler(logger.Discard()), service)
		})

		ginkgo.It("should flatten indicator columns into each row", func() {
			repo.bars = []marketDatamodel.Historical{bar(1, 100), bar(2, 110)}
			body := `{"ticker_id":7,"from_date":"2024-03-01","to_date":"2024-03-02","indicators":[{"name":"MA","period":"2"}],"source":"ALPACA"}`
			w := httptest.NewRecorder()
			handler.GetData(w, httptest.NewRequest(http.MethodPost, "/stats/data", strings.NewReader(body)))

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(repo.query.Source).To(gomega.Equal("ALPACA"))
			gomega.Expect(repo.query.To).To(gomega.Equal(time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)))

			var rows []map[string]any
			gomega.Expect(json.NewDecoder(w.Body).Decode(&rows)).To(gomega.Succeed())
			gomega.Expect(rows).To(gomega.HaveLen(2))
			gomega.Expect(rows[0]).To(gomega.HaveKeyWithValue("MA_2", gomega.BeNil()))
			gomega.Expect(rows[1]).To(gomega.HaveKeyWithValue("MA_2", 105.0))
			gomega.Expect(rows[1]).To(gomega.HaveKeyWithValue("close", 110.0))
			gomega.Expect(rows[1]).To(gomega.HaveKey("timestamp"))
		})

		ginkgo.It("should reject a malformed date", func() {
			w := httptest.NewRecorder()
			handler.GetData(w, httptest.NewRequest(http.MethodPost, "/stats/data", strings.NewReader(`{"ticker_id":7,"from_date":"March"}`)))
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})
})
