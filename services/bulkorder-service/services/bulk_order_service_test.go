package services_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/oemparts/storefront/services/bulkorder-service/models"
	"github.com/oemparts/storefront/services/bulkorder-service/repository"
	"github.com/oemparts/storefront/services/bulkorder-service/services"
	apperrors "github.com/oemparts/storefront/services/common/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ---- fakes ----

type fakeCatalog struct {
	mu      sync.Mutex
	results []models.ValidationResult
	err     error
	calls   int32
	gotSKUs [][]string
	gotUser []*string
	// hook runs before the fake answers, e.g. to edit the session mid-flight
	hook func()
	// block, when set, holds the call until closed or ctx ends
	block chan struct{}
}

func (f *fakeCatalog) ValidateSKUs(ctx context.Context, skus []string, userID *string) ([]models.ValidationResult, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.gotSKUs = append(f.gotSKUs, skus)
	f.gotUser = append(f.gotUser, userID)
	hook, block := f.hook, f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if hook != nil {
		hook()
	}
	return f.results, f.err
}

type cartCall struct {
	owner string
	item  models.CartInsertion
	key   string
}

type fakeCart struct {
	mu     sync.Mutex
	calls  []cartCall
	failAt int // 1-based call number to fail, 0 never
	seen   map[string]bool
	// refuse answers like a cart that rejects the item for this SKU
	refuse string
}

func (f *fakeCart) AddItem(_ context.Context, owner string, item models.CartInsertion, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cartCall{owner, item, key})
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return errors.New("cart unavailable")
	}
	if f.refuse != "" && item.SKU == f.refuse {
		return &services.CartRejectedError{StatusCode: http.StatusBadRequest, Message: "quantity out of range"}
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	f.seen[key] = true
	return nil
}

type fakeSNS struct {
	mu       sync.Mutex
	messages [][]byte
	err      error
}

func (f *fakeSNS) Publish(_ context.Context, _ string, message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return f.err
}

// ---- helpers ----

type fixture struct {
	svc     services.BulkOrderService
	repo    *repository.RedisSessionRepository
	mr      *miniredis.Miniredis
	catalog *fakeCatalog
	cart    *fakeCart
	sns     *fakeSNS
}

func setup(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		repo:    repository.NewRedisSessionRepository(client, time.Hour),
		mr:      mr,
		catalog: &fakeCatalog{},
		cart:    &fakeCart{},
		sns:     &fakeSNS{},
	}
	f.svc = services.NewBulkOrderService(f.repo, f.catalog, f.cart, f.sns, nil,
		services.Options{ValidationTimeout: 200 * time.Millisecond, SNSTopicArn: "arn:aws:sns:us-east-1:000000000000:bulk-orders"},
		zap.NewNop())
	return f
}

func price(v float64) *float64 { return &v }

const scenario = "ABC123\t5\nDEF-456,10\nBADROW\nGHI789 0\n"

func statusOf(t *testing.T, resp *models.SessionResponse) []models.RowStatus {
	t.Helper()
	out := make([]models.RowStatus, len(resp.Rows))
	for i := range resp.Rows {
		out[i] = resp.Rows[i].Status()
	}
	return out
}

func assertAppError(t *testing.T, err error, code int) {
	t.Helper()
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

// ---- tests ----

func TestEndToEndScenario(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.CreateSession(ctx, scenario, "")
	require.NoError(t, err)
	require.Len(t, created.Rows, 2)
	assert.Equal(t, "ABC123", created.Rows[0].SKU())
	assert.Equal(t, 5, created.Rows[0].Quantity())
	assert.Equal(t, "DEF-456", created.Rows[1].SKU())
	assert.Equal(t, 10, created.Rows[1].Quantity())
	require.NotNil(t, created.ParseReport)
	assert.Len(t, created.ParseReport.DroppedLines, 2)
	assert.Equal(t, models.ReadinessCounts{Total: 2, Pending: 2}, created.Readiness)

	f.catalog.results = []models.ValidationResult{
		{SKU: "ABC123", CatalogID: "cat-abc", Description: "Oil filter", Price: 10.00, InStock: true, Status: "ok"},
	}
	validated, err := f.svc.Validate(ctx, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []models.RowStatus{models.RowStatusValid, models.RowStatusError}, statusOf(t, validated))
	assert.Equal(t, models.MsgValidationFailed, validated.Rows[1].ErrorMessage())
	assert.True(t, validated.Readiness.CanCommit)
	assert.NotNil(t, validated.LastValidatedAt)

	result, err := f.svc.Commit(ctx, created.ID, "")
	require.NoError(t, err)
	require.Len(t, f.cart.calls, 1)
	call := f.cart.calls[0]
	assert.Equal(t, models.CartInsertion{
		CatalogID: "cat-abc", SKU: "ABC123", Description: "Oil filter",
		Price: 10, Quantity: 5, DiscountedPrice: 10, InStock: true,
	}, call.item)
	assert.Equal(t, "guest-"+created.ID, call.owner)
	assert.Equal(t, 1, result.ItemsAdded)
	assert.Equal(t, 1, result.Skipped)

	_, err = f.svc.GetSession(ctx, created.ID, "")
	assertAppError(t, err, http.StatusNotFound)
	assert.Len(t, f.sns.messages, 1)
}

func TestCreateSession_NothingParsed(t *testing.T) {
	f := setup(t)
	_, err := f.svc.CreateSession(context.Background(), "BADROW\n\n", "")
	assertAppError(t, err, http.StatusBadRequest)
}

func TestValidate_DedupesAndSendsUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1\nB2,2\nA1,3", "user-7")
	require.NoError(t, err)

	_, err = f.svc.Validate(ctx, created.ID, "user-7")
	require.NoError(t, err)

	require.Len(t, f.catalog.gotSKUs, 1)
	assert.Equal(t, []string{"A1", "B2"}, f.catalog.gotSKUs[0])
	require.NotNil(t, f.catalog.gotUser[0])
	assert.Equal(t, "user-7", *f.catalog.gotUser[0])
}

func TestValidate_AnonymousSendsNullUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1", "")
	require.NoError(t, err)

	_, err = f.svc.Validate(ctx, created.ID, "")
	require.NoError(t, err)
	assert.Nil(t, f.catalog.gotUser[0])
}

func TestValidate_TransportFailureLeavesRowsUntouched(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1\nB2,2", "")
	require.NoError(t, err)

	f.catalog.results = []models.ValidationResult{{SKU: "A1", CatalogID: "a", Status: "ok"}}
	_, err = f.svc.Validate(ctx, created.ID, "")
	require.NoError(t, err)

	f.catalog.err = errors.New("connection reset")
	_, err = f.svc.Validate(ctx, created.ID, "")
	assertAppError(t, err, http.StatusBadGateway)

	got, err := f.svc.GetSession(ctx, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []models.RowStatus{models.RowStatusValid, models.RowStatusError}, statusOf(t, got))
	assert.False(t, got.Validating)
}

func TestValidate_Timeout(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1", "")
	require.NoError(t, err)

	f.catalog.block = make(chan struct{})
	defer close(f.catalog.block)

	_, err = f.svc.Validate(ctx, created.ID, "")
	assertAppError(t, err, http.StatusGatewayTimeout)

	got, err := f.svc.GetSession(ctx, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []models.RowStatus{models.RowStatusPending}, statusOf(t, got))
}

func TestValidate_IdempotentOnUnchangedRows(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1\nB2,2\nC3,3", "")
	require.NoError(t, err)
	f.catalog.results = []models.ValidationResult{
		{SKU: "A1", CatalogID: "a", Price: 4, DiscountedPrice: price(3.6), Status: "ok", InStock: true},
		{SKU: "B2", CatalogID: "b", Price: 8, Status: "warn", Message: "Out of stock - ships when available"},
	}

	first, err := f.svc.Validate(ctx, created.ID, "")
	require.NoError(t, err)
	second, err := f.svc.Validate(ctx, created.ID, "")
	require.NoError(t, err)

	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Readiness, second.Readiness)
}

func TestValidate_EditDuringFlightWins(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1\nB2,2\nC3,3", "")
	require.NoError(t, err)
	editID, deleteID := created.Rows[0].ID(), created.Rows[1].ID()

	f.catalog.results = []models.ValidationResult{
		{SKU: "A1", CatalogID: "a", Status: "ok"},
		{SKU: "B2", CatalogID: "b", Status: "ok"},
		{SKU: "C3", CatalogID: "c", Status: "ok"},
	}
	f.catalog.hook = func() {
		sku := "A1-NEW"
		_, err := f.svc.EditRow(ctx, created.ID, "", editID, models.RowPatch{SKU: &sku})
		require.NoError(t, err)
		_, err = f.svc.DeleteRow(ctx, created.ID, "", deleteID)
		require.NoError(t, err)
	}

	validated, err := f.svc.Validate(ctx, created.ID, "")
	require.NoError(t, err)
	require.Len(t, validated.Rows, 2)
	assert.Equal(t, "A1-NEW", validated.Rows[0].SKU())
	assert.Equal(t, models.RowStatusPending, validated.Rows[0].Status())
	assert.Equal(t, models.RowStatusValid, validated.Rows[1].Status())
}

func TestValidate_SessionClosedBeforeResponse(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1", "")
	require.NoError(t, err)

	f.catalog.results = []models.ValidationResult{{SKU: "A1", CatalogID: "a", Status: "ok"}}
	f.catalog.hook = func() {
		require.NoError(t, f.svc.CloseSession(ctx, created.ID, ""))
	}

	_, err = f.svc.Validate(ctx, created.ID, "")
	assertAppError(t, err, http.StatusNotFound)
	assert.False(t, f.mr.Exists("bulkorder:session:"+created.ID))
}

func TestValidate_ConcurrentCallsShareOneRoundTrip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1", "")
	require.NoError(t, err)

	f.catalog.results = []models.ValidationResult{{SKU: "A1", CatalogID: "a", Status: "ok"}}
	f.catalog.block = make(chan struct{})

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Validate(ctx, created.ID, "")
		}(i)
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&f.catalog.calls) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(f.catalog.block)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&f.catalog.calls))
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestValidate_RejectedWhileAnotherInstanceValidates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1", "")
	require.NoError(t, err)
	require.NoError(t, f.mr.Set("bulkorder:validating:"+created.ID, "other-instance"))

	_, err = f.svc.Validate(ctx, created.ID, "")
	assertAppError(t, err, http.StatusConflict)
	assert.Zero(t, atomic.LoadInt32(&f.catalog.calls))

	got, err := f.svc.GetSession(ctx, created.ID, "")
	require.NoError(t, err)
	assert.True(t, got.Validating)
}

func TestEditRow_ResetsValidatedRow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1", "")
	require.NoError(t, err)
	f.catalog.results = []models.ValidationResult{{SKU: "A1", CatalogID: "a", Description: "Gasket", Price: 2, Status: "ok"}}
	_, err = f.svc.Validate(ctx, created.ID, "")
	require.NoError(t, err)

	qty := 4
	edited, err := f.svc.EditRow(ctx, created.ID, "", created.Rows[0].ID(), models.RowPatch{Quantity: &qty})
	require.NoError(t, err)

	row := edited.Rows[0]
	assert.Equal(t, models.RowStatusPending, row.Status())
	assert.Equal(t, 4, row.Quantity())
	_, ok := row.Details()
	assert.False(t, ok)
	assert.False(t, edited.Readiness.CanCommit)
}

func TestEditRow_UnknownRow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1", "")
	require.NoError(t, err)

	_, err = f.svc.EditRow(ctx, created.ID, "", "nope", models.RowPatch{})
	assertAppError(t, err, http.StatusNotFound)
	_, err = f.svc.DeleteRow(ctx, created.ID, "", "nope")
	assertAppError(t, err, http.StatusNotFound)
}

func TestDeleteRow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1\nB2,2", "")
	require.NoError(t, err)

	resp, err := f.svc.DeleteRow(ctx, created.ID, "", created.Rows[0].ID())
	require.NoError(t, err)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "B2", resp.Rows[0].SKU())
	assert.Equal(t, 1, resp.Readiness.Total)
}

func TestReplaceRows(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1\nB2,2", "")
	require.NoError(t, err)

	replaced, err := f.svc.ReplaceRows(ctx, created.ID, "", "Z9|9")
	require.NoError(t, err)
	require.Len(t, replaced.Rows, 1)
	assert.Equal(t, "Z9", replaced.Rows[0].SKU())
	assert.NotNil(t, replaced.ParseReport)

	_, err = f.svc.ReplaceRows(ctx, created.ID, "", "junk")
	assertAppError(t, err, http.StatusBadRequest)
}

func TestCommit_FiltersToValidAndWarning(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "OK1,1\nWARN1,2\nERR1,3\nMISSING,4\nOK2,5", "user-1")
	require.NoError(t, err)
	f.catalog.results = []models.ValidationResult{
		{SKU: "OK1", CatalogID: "c1", Price: 10, DiscountedPrice: price(8), Status: "ok", InStock: true},
		{SKU: "WARN1", CatalogID: "c2", Price: 20, Status: "warn", Message: "Out of stock - ships when available"},
		{SKU: "ERR1", CatalogID: "c3", Price: 30, Status: "error", Message: "Part is discontinued"},
		{SKU: "OK2", CatalogID: "c5", Price: 50, Status: "ok", InStock: true},
	}
	_, err = f.svc.Validate(ctx, created.ID, "user-1")
	require.NoError(t, err)

	// a pending row must not be committed either
	qty := 6
	_, err = f.svc.EditRow(ctx, created.ID, "user-1", created.Rows[4].ID(), models.RowPatch{Quantity: &qty})
	require.NoError(t, err)

	result, err := f.svc.Commit(ctx, created.ID, "user-1")
	require.NoError(t, err)
	require.Len(t, f.cart.calls, 2)
	assert.Equal(t, "OK1", f.cart.calls[0].item.SKU)
	assert.Equal(t, 8.0, f.cart.calls[0].item.DiscountedPrice)
	assert.Equal(t, 10.0, f.cart.calls[0].item.Price)
	assert.Equal(t, "WARN1", f.cart.calls[1].item.SKU)
	assert.Equal(t, 20.0, f.cart.calls[1].item.DiscountedPrice)
	assert.False(t, f.cart.calls[1].item.InStock)
	assert.Equal(t, "user-1", f.cart.calls[0].owner)
	assert.Equal(t, 2, result.ItemsAdded)
	assert.Equal(t, 3, result.Skipped)
}

func TestCommit_NothingCommittable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1", "")
	require.NoError(t, err)

	_, err = f.svc.Commit(ctx, created.ID, "")
	assertAppError(t, err, http.StatusConflict)
	assert.Empty(t, f.cart.calls)
}

func TestCommit_FailureKeepsSessionAndRetryReusesKeys(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1\nB2,2", "")
	require.NoError(t, err)
	f.catalog.results = []models.ValidationResult{
		{SKU: "A1", CatalogID: "a", Status: "ok"},
		{SKU: "B2", CatalogID: "b", Status: "ok"},
	}
	_, err = f.svc.Validate(ctx, created.ID, "")
	require.NoError(t, err)

	f.cart.failAt = 2
	_, err = f.svc.Commit(ctx, created.ID, "")
	assertAppError(t, err, http.StatusBadGateway)

	got, err := f.svc.GetSession(ctx, created.ID, "")
	require.NoError(t, err)
	assert.Len(t, got.Rows, 2)
	assert.Empty(t, f.sns.messages)

	f.cart.failAt = 0
	_, err = f.svc.Commit(ctx, created.ID, "")
	require.NoError(t, err)

	require.Len(t, f.cart.calls, 4)
	assert.Equal(t, f.cart.calls[0].key, f.cart.calls[2].key)
	assert.Equal(t, f.cart.calls[1].key, f.cart.calls[3].key)
	assert.NotEqual(t, f.cart.calls[0].key, f.cart.calls[1].key)
}

func TestCommit_QuantityAboveCartLimitNeverReachesCart(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, fmt.Sprintf("ABC123 %d\nDEF1 2", models.MaxQuantity+1), "")
	require.NoError(t, err)
	require.Len(t, created.Rows, 1)
	require.NotNil(t, created.ParseReport)
	require.Len(t, created.ParseReport.DroppedLines, 1)
	assert.Equal(t, models.DropQtyTooLarge, created.ParseReport.DroppedLines[0].Reason)

	f.catalog.results = []models.ValidationResult{{SKU: "DEF1", CatalogID: "d", Price: 3, Status: "ok"}}
	_, err = f.svc.Validate(ctx, created.ID, "")
	require.NoError(t, err)

	qty := models.MaxQuantity + 50
	_, err = f.svc.EditRow(ctx, created.ID, "", created.Rows[0].ID(), models.RowPatch{Quantity: &qty})
	require.NoError(t, err)
	_, err = f.svc.Validate(ctx, created.ID, "")
	require.NoError(t, err)

	result, err := f.svc.Commit(ctx, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.ItemsAdded)
	require.Len(t, f.cart.calls, 1)
	assert.Equal(t, models.MaxQuantity, f.cart.calls[0].item.Quantity)
}

func TestCommit_CartRefusalFlagsRowAndRetrySucceeds(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1\nB2,2\nC3,3", "")
	require.NoError(t, err)
	f.catalog.results = []models.ValidationResult{
		{SKU: "A1", CatalogID: "a", Status: "ok"},
		{SKU: "B2", CatalogID: "b", Description: "Hose", Status: "ok"},
		{SKU: "C3", CatalogID: "c", Status: "ok"},
	}
	_, err = f.svc.Validate(ctx, created.ID, "")
	require.NoError(t, err)

	f.cart.refuse = "B2"
	_, err = f.svc.Commit(ctx, created.ID, "")
	assertAppError(t, err, http.StatusUnprocessableEntity)
	assert.ErrorIs(t, err, services.ErrCartRejected)

	got, err := f.svc.GetSession(ctx, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []models.RowStatus{models.RowStatusValid, models.RowStatusError, models.RowStatusValid}, statusOf(t, got))
	assert.Contains(t, got.Rows[1].ErrorMessage(), "quantity out of range")
	d, ok := got.Rows[1].Details()
	require.True(t, ok)
	assert.Equal(t, "Hose", d.Description)

	result, err := f.svc.Commit(ctx, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, result.ItemsAdded)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, f.cart.calls, 4)
	assert.Equal(t, f.cart.calls[0].key, f.cart.calls[2].key)
	assert.Equal(t, "C3", f.cart.calls[3].item.SKU)
}

func TestCreateSession_TooManyRows(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var b strings.Builder
	for i := 0; i <= models.MaxSessionRows; i++ {
		fmt.Fprintf(&b, "P%05d,1\n", i)
	}
	_, err := f.svc.CreateSession(ctx, b.String(), "")
	assertAppError(t, err, http.StatusBadRequest)
	assert.ErrorIs(t, err, services.ErrTooManyRows)
	assert.Empty(t, f.mr.Keys())

	created, err := f.svc.CreateSession(ctx, "A1,1", "")
	require.NoError(t, err)
	_, err = f.svc.ReplaceRows(ctx, created.ID, "", b.String())
	assert.ErrorIs(t, err, services.ErrTooManyRows)
}

func TestValidate_CatalogRefusalIsNotTransportFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1", "")
	require.NoError(t, err)

	f.catalog.err = &services.CatalogRejectedError{StatusCode: http.StatusBadRequest, Message: "Too many SKUs in one validation request"}
	_, err = f.svc.Validate(ctx, created.ID, "")
	assertAppError(t, err, http.StatusUnprocessableEntity)
	assert.ErrorIs(t, err, services.ErrValidationRejected)
	assert.NotErrorIs(t, err, services.ErrValidationFailed)

	got, err := f.svc.GetSession(ctx, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []models.RowStatus{models.RowStatusPending}, statusOf(t, got))
}

func TestCommit_PublishFailureIsNotFatal(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1", "")
	require.NoError(t, err)
	f.catalog.results = []models.ValidationResult{{SKU: "A1", CatalogID: "a", Status: "ok"}}
	_, err = f.svc.Validate(ctx, created.ID, "")
	require.NoError(t, err)

	f.sns.err = errors.New("throttled")
	_, err = f.svc.Commit(ctx, created.ID, "")
	assert.NoError(t, err)
}

func TestSessionOwnership(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateSession(ctx, "A1,1", "user-1")
	require.NoError(t, err)

	_, err = f.svc.GetSession(ctx, created.ID, "user-2")
	assertAppError(t, err, http.StatusNotFound)
	_, err = f.svc.GetSession(ctx, created.ID, "")
	assertAppError(t, err, http.StatusNotFound)
	assert.Error(t, f.svc.CloseSession(ctx, created.ID, "user-2"))

	_, err = f.svc.GetSession(ctx, created.ID, "user-1")
	assert.NoError(t, err)
}

func TestPreview(t *testing.T) {
	f := setup(t)
	resp := f.svc.Preview(scenario)

	require.Len(t, resp.Rows, 2)
	assert.Equal(t, 2, resp.Counts.Pending)
	assert.Len(t, resp.Report.DroppedLines, 2)
	assert.Empty(t, f.mr.Keys())
}
