package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

type LogStats struct {
	TotalErrors        int
	LedgerAppends      int
	DuplicateSkips     int
	BalanceDrift       int
	VoucherRedemptions int
	CryptoConfirmed    int
	ChainQueryFailures int
	ReferralRewards    int
	UserActivities     map[string]int
	ErrorPatterns      map[string]int
}

func main() {
	// Get today's date for log file names
	today := time.Now().Format("2006-01-02")
	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "./logs"
	}

	// Initialize stats
	stats := &LogStats{
		UserActivities: make(map[string]int),
		ErrorPatterns:  make(map[string]int),
	}

	// Analyze error logs
	analyzeErrorLogs(filepath.Join(logDir, fmt.Sprintf("quillgen-error-%s.log", today)), stats)

	// Analyze info logs
	analyzeInfoLogs(filepath.Join(logDir, fmt.Sprintf("quillgen-info-%s.log", today)), stats)

	// Print report
	printReport(stats)
}

func analyzeErrorLogs(logFile string, stats *LogStats) {
	file, err := os.Open(logFile)
	if err != nil {
		fmt.Printf("Error opening log file %s: %v\n", logFile, err)
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		stats.TotalErrors++

		// Balance drift is the one error that should never happen
		if strings.Contains(line, "Balance drift") {
			stats.BalanceDrift++
			extractUserActivity(line, stats)
		}

		// Count chain query failures
		if strings.Contains(line, "Chain query failed") {
			stats.ChainQueryFailures++
		}

		// Extract error patterns
		extractErrorPattern(line, stats)
	}
}

func analyzeInfoLogs(logFile string, stats *LogStats) {
	file, err := os.Open(logFile)
	if err != nil {
		fmt.Printf("Error opening log file %s: %v\n", logFile, err)
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()

		// Count voucher redemptions
		if strings.Contains(line, "redeemed by user ID") {
			stats.VoucherRedemptions++
			extractUserActivity(line, stats)
		}

		// Count confirmed crypto payments
		if strings.Contains(line, "Crypto payment confirmed") {
			stats.CryptoConfirmed++
			extractUserActivity(line, stats)
		}

		// Count idempotency hits
		if strings.Contains(line, "Duplicate ledger append skipped") {
			stats.DuplicateSkips++
			extractUserActivity(line, stats)
		}

		// Count referral payouts
		if strings.Contains(line, "Referral reward granted") {
			stats.ReferralRewards++
		}
	}
}

func extractUserActivity(line string, stats *LogStats) {
	// Extract user ID from log line
	userRegex := regexp.MustCompile(`user ID:? (\d+)`)
	if m := userRegex.FindStringSubmatch(line); m != nil {
		stats.UserActivities[m[1]]++
	}
}

func extractErrorPattern(line string, stats *LogStats) {
	// Extract the main error message
	parts := strings.Split(line, ":")
	if len(parts) > 1 {
		errorMsg := strings.TrimSpace(parts[1])
		stats.ErrorPatterns[errorMsg]++
	}
}

func printReport(stats *LogStats) {
	fmt.Println("\n=== Log Analysis Report ===")
	fmt.Println("Generated:", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Println("\n1. Ledger Activity:")
	fmt.Printf("   Voucher Redemptions: %d\n", stats.VoucherRedemptions)
	fmt.Printf("   Crypto Payments Confirmed: %d\n", stats.CryptoConfirmed)
	fmt.Printf("   Referral Rewards Paid: %d\n", stats.ReferralRewards)
	fmt.Printf("   Duplicate Appends Skipped: %d\n", stats.DuplicateSkips)

	fmt.Println("\n2. Integrity Incidents:")
	fmt.Printf("   Balance Drift Repairs: %d\n", stats.BalanceDrift)
	fmt.Printf("   Chain Query Failures: %d\n", stats.ChainQueryFailures)

	fmt.Println("\n3. Error Statistics:")
	fmt.Printf("   Total Errors: %d\n", stats.TotalErrors)

	fmt.Println("\n4. Most Active Users:")
	printTopUsers(stats.UserActivities, 5)

	fmt.Println("\n5. Most Common Errors:")
	printTopErrors(stats.ErrorPatterns, 5)
}

func printTopUsers(users map[string]int, limit int) {
	type userActivity struct {
		userID string
		count  int
	}

	var activities []userActivity
	for userID, count := range users {
		activities = append(activities, userActivity{userID, count})
	}

	sort.Slice(activities, func(i, j int) bool {
		return activities[i].count > activities[j].count
	})

	for i, activity := range activities {
		if i >= limit {
			break
		}
		fmt.Printf("   user %s: %d activities\n", activity.userID, activity.count)
	}
}

func printTopErrors(errors map[string]int, limit int) {
	type errorCount struct {
		error string
		count int
	}

	var errorList []errorCount
	for err, count := range errors {
		errorList = append(errorList, errorCount{err, count})
	}

	sort.Slice(errorList, func(i, j int) bool {
		return errorList[i].count > errorList[j].count
	})

	for i, err := range errorList {
		if i >= limit {
			break
		}
		fmt.Printf("   %s: %d occurrences\n", err.error, err.count)
	}
}
