package controllers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"

	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"github.com/quillgen/quillgen/utils"
)

// ReconcileUserBalance recomputes a user's balance from the ledger and repairs
// the cached projection if it drifted
func ReconcileUserBalance(c *gin.Context) {
	utils.LogInfo("ReconcileUserBalance called")

	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "Invalid user ID", nil)
		return
	}

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		utils.NotFound(c, "User not found")
		return
	}

	cached, recomputed, repaired, err := utils.ReconcileBalance(uint(userID))
	if err != nil {
		utils.LogError("Failed to reconcile user ID: %d: %v", userID, err)
		utils.InternalServerError(c, "Failed to reconcile balance", nil)
		return
	}

	utils.Success(c, "Reconciliation complete", gin.H{
		"user_id":    userID,
		"cached":     cached,
		"recomputed": recomputed,
		"repaired":   repaired,
	})
}

// Admin: Download ledger export as Excel
func DownloadLedgerExportExcel(c *gin.Context) {
	utils.LogInfo("DownloadLedgerExportExcel called")

	period := c.DefaultQuery("period", "day")
	utils.LogDebug("Generating Excel export for period: %s", period)

	now := time.Now()
	var startDate, endDate time.Time

	switch period {
	case "day":
		startDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		endDate = time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 999999999, now.Location())
	case "week":
		endDate = time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 999999999, now.Location())
		startDate = endDate.AddDate(0, 0, -6)
		startDate = time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, startDate.Location())
	case "month":
		startDate = now.AddDate(0, 0, -30).Truncate(24 * time.Hour)
		endDate = now.Add(24 * time.Hour)
	default:
		utils.LogError("Invalid period specified: %s", period)
		utils.BadRequest(c, "Invalid period", "Period must be day, week, or month")
		return
	}

	query := config.DB.Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Order("created_at DESC")
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var entries []models.LedgerEntry
	if err := query.Find(&entries).Error; err != nil {
		utils.LogError("Failed to fetch ledger entries: %v", err)
		utils.InternalServerError(c, "Failed to fetch ledger entries", err.Error())
		return
	}
	utils.LogDebug("Retrieved %d ledger entries for Excel export", len(entries))

	// --- Calculate summary ---
	var summary struct {
		TotalEntries   int
		CreditsIssued  int64
		CreditsSpent   int64
		NetMovement    int64
		TotalUsers     int
		PurchaseCount  int
		RedemptionRows int
	}
	userSet := make(map[uint]bool)
	for _, entry := range entries {
		summary.TotalEntries++
		if entry.Amount > 0 {
			summary.CreditsIssued += entry.Amount
		} else {
			summary.CreditsSpent += -entry.Amount
		}
		summary.NetMovement += entry.Amount
		userSet[entry.UserID] = true
		if entry.Type == models.EntryTypePurchase {
			summary.PurchaseCount++
		}
		if entry.Source == models.SourceVoucher || entry.Source == models.SourceReferral {
			summary.RedemptionRows++
		}
	}
	summary.TotalUsers = len(userSet)

	// --- Excel Generation ---
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Ledger Export")
	if err != nil {
		utils.LogError("Failed to create Excel sheet: %v", err)
		utils.InternalServerError(c, "Failed to create Excel sheet", err.Error())
		return
	}
	utils.LogDebug("Created Excel sheet for ledger export")

	// Company details
	companyRow := sheet.AddRow()
	companyRow.AddCell().SetString("QUILLGEN - Credit Ledger Export")
	companyRow = sheet.AddRow()
	companyRow.AddCell().SetString("Email: support@quillgen.app")
	companyRow = sheet.AddRow()
	companyRow.AddCell().SetString("Period: " + strings.ToUpper(period) + " | " + startDate.Format("2006-01-02") + " to " + endDate.Format("2006-01-02"))
	sheet.AddRow() // spacing

	// Table headers
	headers := []string{"Entry ID", "User ID", "Date", "Type", "Source", "Amount", "External Ref", "Description"}
	headerRow := sheet.AddRow()
	for _, h := range headers {
		cell := headerRow.AddCell()
		cell.SetString(h)
		style := xlsx.NewStyle()
		font := xlsx.DefaultFont()
		font.Bold = true
		style.Font = *font
		cell.SetStyle(style)
	}

	// Table rows
	for _, entry := range entries {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(entry.ID))
		row.AddCell().SetInt(int(entry.UserID))
		row.AddCell().SetString(entry.CreatedAt.Format("2006-01-02 15:04"))
		row.AddCell().SetString(entry.Type)
		row.AddCell().SetString(entry.Source)
		row.AddCell().SetInt(int(entry.Amount))
		row.AddCell().SetString(entry.ExternalRef)
		row.AddCell().SetString(entry.Description)
	}

	sheet.AddRow() // spacing

	// --- Summary Section ---
	summaryRow := sheet.AddRow()
	summaryRow.AddCell().SetString("Summary")
	style := xlsx.NewStyle()
	font := xlsx.DefaultFont()
	font.Bold = true
	style.Font = *font
	summaryRow.Cells[0].SetStyle(style)

	summaryData := [][]string{
		{"Total Entries", fmt.Sprintf("%d", summary.TotalEntries)},
		{"Credits Issued", fmt.Sprintf("%d", summary.CreditsIssued)},
		{"Credits Spent", fmt.Sprintf("%d", summary.CreditsSpent)},
		{"Net Movement", fmt.Sprintf("%d", summary.NetMovement)},
		{"Active Users", fmt.Sprintf("%d", summary.TotalUsers)},
		{"Purchases", fmt.Sprintf("%d", summary.PurchaseCount)},
		{"Redemption Entries", fmt.Sprintf("%d", summary.RedemptionRows)},
	}
	for _, data := range summaryData {
		row := sheet.AddRow()
		row.AddCell().SetString(data[0])
		row.AddCell().SetString(data[1])
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=ledger_export_%s.xlsx", period))
	if err := file.Write(c.Writer); err != nil {
		utils.LogError("Failed to write Excel file: %v", err)
		utils.InternalServerError(c, "Failed to write Excel file", err.Error())
		return
	}
	utils.LogInfo("Successfully generated Excel export for period %s", period)
}
