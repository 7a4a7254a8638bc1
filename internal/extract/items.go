package extract

import (
	"strconv"
	"strings"

	"invex/pkg/models"
)

// ExtractLineItems recovers the ordered item list from the whole document
// text. Three independent layout detectors run over the same text and their
// outputs are concatenated in fixed order: hours-and-rate service lines,
// numbered item blocks, then product-code blocks. The styles are not
// mutually exclusive and no deduplication happens across them; a document
// matching several styles for the same physical item yields duplicates.
//
// fallbackPO is the document-level purchase order (already "PO-" prefixed,
// possibly empty) substituted wherever an item carries no PO of its own.
func ExtractLineItems(text, fallbackPO string) []models.LineItem {
	text = repairTypos(text)
	lines := nonEmptyLines(text)

	items := detectHoursRate(lines, fallbackPO)
	items = append(items, detectNumberedBlocks(text, fallbackPO)...)
	items = append(items, detectProductCodeBlocks(lines, fallbackPO)...)
	return items
}

// repairTypos substitutes the known OCR misreads before any layout scan.
var typoReplacer = strings.NewReplacer(
	"Am0unt", "Amount",
	"H0urs", "Hours",
	"×", "x",
	"/hr", "",
)

func repairTypos(text string) string {
	return typoReplacer.Replace(text)
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}

// Header labels that precede hours-and-rate lines but are not descriptions.
var headerLabels = map[string]bool{
	"DESCRIPTION":    true,
	"INVOICEDETAILS": true,
	"ITEM DETAILS:":  true,
}

// detectHoursRate finds unnumbered "Hours: N x Rate: $R" service items.
// The description is the preceding line, skipping one table-header label if
// present; the line total is searched within the matching line and the two
// lines after it. Items of this style never carry a per-item PO.
func detectHoursRate(lines []string, fallbackPO string) []models.LineItem {
	var items []models.LineItem
	for i, line := range lines {
		m := hoursRatePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		desc := ""
		if i-1 >= 0 {
			desc = lines[i-1]
		}
		if headerLabels[strings.ToUpper(desc)] {
			desc = ""
			if i-2 >= 0 {
				desc = lines[i-2]
			}
		}

		qty, _ := strconv.Atoi(group(hoursRatePattern, line, "hours"))
		unitPrice := NormalizeDecimal(group(hoursRatePattern, line, "rate"))

		lineTotal := 0.0
		for j := i; j < len(lines) && j < i+3; j++ {
			if lt := group(lineTotalPattern, lines[j], "lt"); lt != "" {
				lineTotal = NormalizeDecimal(lt)
				break
			}
		}

		items = append(items, models.LineItem{
			Description: desc,
			Qty:         qty,
			UnitPrice:   unitPrice,
			LineTotal:   lineTotal,
			PONumber:    fallbackPO,
		})
	}
	return items
}

// detectNumberedBlocks finds numbered item blocks ("3. Widget" followed by
// field lines). The text is cut at every line starting with "N." and each
// block is scanned independently for its fields. A block is accepted only
// when it yields a product code or a non-zero line total, which filters out
// numbered notes and terms that are not genuine item rows.
func detectNumberedBlocks(text, fallbackPO string) []models.LineItem {
	var items []models.LineItem
	for _, block := range splitNumberedBlocks(text) {
		lines := nonEmptyLines(block)
		if len(lines) == 0 || !numberedLinePattern.MatchString(lines[0]) {
			continue
		}

		item := models.LineItem{
			Description: strings.TrimSpace(numberedLinePattern.ReplaceAllString(lines[0], "")),
			PONumber:    fallbackPO,
		}

		body := strings.Join(lines[1:], "\n")
		if code := group(productCodePattern, body, "code"); code != "" {
			item.ProductCode = strings.TrimSpace(code)
		}
		if qty := group(quantityPattern, body, "qty"); qty != "" {
			item.Qty, _ = strconv.Atoi(strings.TrimSpace(qty))
		}
		if pr := group(pricePattern, body, "pr"); pr != "" {
			item.UnitPrice = NormalizeDecimal(strings.TrimSpace(pr))
		}
		if lt := group(lineTotalPattern, body, "lt"); lt != "" {
			item.LineTotal = NormalizeDecimal(strings.TrimSpace(lt))
		}
		if po := group(poNumberPattern, body, "po"); po != "" {
			item.PONumber = "PO-" + strings.TrimSpace(po)
		}

		if item.ProductCode != "" || item.LineTotal != 0 {
			items = append(items, item)
		}
	}
	return items
}

// splitNumberedBlocks cuts the text at line boundaries immediately before a
// line beginning with "digits." so that each delimiter line opens its block.
func splitNumberedBlocks(text string) []string {
	rawLines := strings.Split(text, "\n")
	var blocks []string
	var current []string
	for _, ln := range rawLines {
		if numberedLinePattern.MatchString(ln) && len(current) > 0 {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = current[:0]
		}
		current = append(current, ln)
	}
	if len(current) > 0 {
		blocks = append(blocks, strings.Join(current, "\n"))
	}
	return blocks
}

// scanState drives the product-code block detector.
type scanState int

const (
	seeking scanState = iota // before the first product-code line
	inItem                   // accumulating fields for an open item
	stopped                  // footer reached, remaining lines ignored
)

// detectProductCodeBlocks finds "Item Details" style items: a line holding
// only a product code opens an item and subsequent lines fill its fields
// until the next code line. The first unrecognized line after the code is
// taken verbatim as the description. A subtotal line marks the start of the
// footer; everything after it is ignored, including later code lines.
func detectProductCodeBlocks(lines []string, fallbackPO string) []models.LineItem {
	var items []models.LineItem
	var current *models.LineItem
	state := seeking

	for idx, line := range lines {
		if state == stopped {
			continue
		}
		if subtotalPattern.MatchString(line) {
			state = stopped
			continue
		}

		if prdLinePattern.MatchString(line) {
			if current != nil {
				items = append(items, *current)
			}
			current = &models.LineItem{
				ProductCode: line,
				PONumber:    fallbackPO,
			}
			state = inItem
			continue
		}

		if state != inItem {
			continue
		}

		switch {
		case current.Description == "":
			current.Description = line

		case quantityPattern.MatchString(line):
			current.Qty, _ = strconv.Atoi(group(quantityPattern, line, "qty"))

		case pricePattern.MatchString(line):
			current.UnitPrice = NormalizeDecimal(group(pricePattern, line, "pr"))

		case lineTotalPattern.MatchString(line):
			current.LineTotal = NormalizeDecimal(group(lineTotalPattern, line, "lt"))

		case poNumberPattern.MatchString(line):
			current.PONumber = "PO-" + group(poNumberPattern, line, "po")

		case poLabelPattern.MatchString(line) && idx+1 < len(lines):
			// The PO number wrapped onto the following line.
			next := strings.TrimSpace(lines[idx+1])
			if m := poFullLinePattern.FindStringSubmatch(next); m != nil {
				current.PONumber = "PO-" + m[1]
			} else if m := poDigitLinePattern.FindStringSubmatch(next); m != nil {
				current.PONumber = "PO-" + m[1]
			}
		}
	}

	// An item left open when the text (or the footer) ends is still an item.
	if current != nil {
		items = append(items, *current)
	}
	return items
}
