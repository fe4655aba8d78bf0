package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// InvoicesCreated counts payment requests successfully minted and stored.
	InvoicesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rolegate_invoices_created_total",
		Help: "Number of pending invoices created.",
	})

	// ConfirmationsReceived counts actionable confirmation signals taken off the feed.
	ConfirmationsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rolegate_confirmations_received_total",
		Help: "Number of confirmed-payment signals received from the event feed.",
	})

	// ConfirmationsMatched counts confirmations that consumed a pending invoice.
	ConfirmationsMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rolegate_confirmations_matched_total",
		Help: "Number of confirmations matched to a pending invoice.",
	})

	// ConfirmationsOrphaned counts confirmations with no matching record
	// (foreign payments, duplicate deliveries, expired invoices).
	ConfirmationsOrphaned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rolegate_confirmations_orphaned_total",
		Help: "Number of confirmations without a matching pending invoice.",
	})

	// GrantsSucceeded counts entitlements granted (including already-held).
	GrantsSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rolegate_grants_succeeded_total",
		Help: "Number of successful entitlement grants.",
	})

	// GrantsFailed counts grant attempts that failed after the record was consumed.
	GrantsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rolegate_grants_failed_total",
		Help: "Number of failed entitlement grants.",
	})

	// FeedReconnects counts event-feed connection attempts after a failure.
	FeedReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rolegate_feed_reconnects_total",
		Help: "Number of event feed reconnection attempts.",
	})

	// InvoicesExpired counts records removed by the expiry sweep.
	InvoicesExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rolegate_invoices_expired_total",
		Help: "Number of pending invoices removed by the expiry sweep.",
	})

	// InvoicesPending tracks the number of records currently awaiting payment.
	InvoicesPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rolegate_invoices_pending",
		Help: "Number of pending invoices awaiting payment.",
	})
)

// Handler returns the HTTP handler serving the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
