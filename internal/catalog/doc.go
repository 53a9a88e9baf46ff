// Package catalog persists subscriptions registered through the API so they
// survive a restart. Subscriptions declared in the configuration file are not
// recorded here; the file stays authoritative for them.
package catalog
