// Command mediasort organizes photo and video files into YEAR/MM/DD folders
// by capture date, recording name collisions in a duplicate ledger for later
// review instead of ever overwriting existing files.
package main
