package extraction

import "fmt"

const systemPrompt = "You are a helpful assistant that extracts structured data from documents. Always respond with valid JSON."

const proformaPromptTemplate = `Extract the following information from this proforma invoice/quotation:
- Vendor/Seller name (as "vendor")
- Vendor contact information (as "vendor_contact")
- Items (name, quantity, unit price, total) (as "items")
- Total amount (as "total_amount")
- Currency (as "currency")
- Terms and conditions (as "terms")
- Payment terms (as "payment_terms")
- Delivery terms (as "delivery_terms")

Text:
%s

Return the data as a JSON object.`

const receiptPromptTemplate = `Extract the following information from this receipt:
- Seller/Vendor name (as "seller")
- Items purchased (name, quantity, price) (as "items")
- Total amount (as "total_amount")
- Currency (as "currency")
- Date of purchase (as "purchase_date")
- Receipt number or invoice number (as "receipt_number")

Text:
%s

Return the data as a JSON object.`

// promptFor interpolates the document text into the type-specific extraction
// prompt. The second return is false for unknown document types.
func promptFor(documentType, text string) (string, bool) {
	switch documentType {
	case DocTypeProforma:
		return fmt.Sprintf(proformaPromptTemplate, text), true
	case DocTypeReceipt:
		return fmt.Sprintf(receiptPromptTemplate, text), true
	default:
		return "", false
	}
}
