package controllers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"

	"github.com/quillgen/quillgen/config"
	"github.com/quillgen/quillgen/models"
	"github.com/quillgen/quillgen/utils"
)

// DownloadCreditReceipt generates and returns a PDF receipt for a PURCHASE
// ledger entry
func DownloadCreditReceipt(c *gin.Context) {
	utils.LogInfo("DownloadCreditReceipt called")

	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	entryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid entry ID", nil)
		return
	}

	var entry models.LedgerEntry
	if err := config.DB.Where("id = ? AND user_id = ?", entryID, user.ID).First(&entry).Error; err != nil {
		utils.LogError("Entry not found for receipt - Entry ID: %d, User ID: %d", entryID, user.ID)
		utils.NotFound(c, "Ledger entry not found")
		return
	}

	if entry.Type != models.EntryTypePurchase {
		utils.BadRequest(c, "Receipts are only available for purchases", nil)
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Store info
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(100, 10, "QuillGen")
	pdf.SetFont("Arial", "", 12)
	pdf.Ln(8)
	pdf.Cell(100, 8, "AI Writing Studio")
	pdf.Ln(8)
	pdf.Cell(100, 8, "Email: support@quillgen.app")
	pdf.Ln(12)

	// Receipt title and entry info
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(100, 10, "CREDIT PURCHASE RECEIPT")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(60, 8, "Receipt No: "+strconv.Itoa(int(entry.ID)))
	pdf.Cell(70, 8, "Date: "+entry.CreatedAt.Format("2006-01-02 15:04:05"))
	pdf.Ln(8)
	pdf.Cell(60, 8, "Payment Source: "+entry.Source)
	if entry.ExternalRef != "" {
		pdf.Cell(100, 8, "Reference: "+utils.MaskAddress(entry.ExternalRef))
	}
	pdf.Ln(10)

	// Customer info
	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(100, 8, "Billed To:")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(100, 8, user.FirstName+" "+user.LastName)
	pdf.Ln(6)
	pdf.Cell(100, 8, user.Email)
	pdf.Ln(10)

	// Line item table
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(90, 8, "Item", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 8, "Credits", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 12)
	description := entry.Description
	if description == "" {
		description = "Credit purchase"
	}
	pdf.CellFormat(90, 8, description, "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, 8, utils.FormatCredits(entry.Amount), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	// Summary section
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(90, 8, "Total Credits:", "", 0, "L", false, 0, "")
	pdf.CellFormat(60, 8, utils.FormatCredits(entry.Amount), "", 1, "R", false, 0, "")

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 10)
	pdf.Cell(100, 8, "Credits are non-refundable and never expire.")

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt_%d.pdf", entry.ID))
	if err := pdf.Output(c.Writer); err != nil {
		utils.LogError("Failed to write PDF receipt: %v", err)
		utils.InternalServerError(c, "Failed to write PDF receipt", err.Error())
		return
	}
	utils.LogInfo("Generated receipt for entry ID: %d", entry.ID)
}
