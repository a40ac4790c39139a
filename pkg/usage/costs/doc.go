// Package costs estimates the spend behind usage records.
//
// Every usage record carries an estimated USD cost derived from its token
// counts and a per-1000-token pricing table. The table ships with built-in
// rates for the supported providers' common models and accepts overrides
// from the usage.pricing configuration section, so operators can track new
// models or negotiated rates without a rebuild.
//
// Rates resolve by exact model name, then model prefix, then the
// provider's "default" entry, then a cross-provider default. Estimation
// never fails; an unknown combination simply prices at the fallback rate.
// The numbers are for trend reporting, not billing reconciliation, and
// drift as vendors reprice.
package costs
