// Package retention prunes old records from the usage ledger on a
// cron schedule.
package retention
