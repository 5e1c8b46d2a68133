// cartctl is a CLI tool for exercising the cart proxy.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	cartctl view -proxy URL -user ID -key KEY
//	cartctl add -proxy URL -user ID -key KEY -product ID -tier ID [-qty N]
//	cartctl increase -proxy URL -user ID -key KEY -item ID
//	cartctl decrease -proxy URL -user ID -key KEY -item ID
//	cartctl set -proxy URL -user ID -key KEY -item ID -qty N
//	cartctl remove -proxy URL -user ID -key KEY -item ID
//	cartctl clear -proxy URL -user ID -key KEY
//	cartctl sync -proxy URL -user ID -key KEY
//
// Examples:
//
//	cartctl add -proxy http://localhost:8080 -user u_123 -key sk_abc -product 5 -tier 17
//	cartctl set -proxy http://localhost:8080 -user u_123 -key sk_abc -item 5-1 -qty 3
//	cartctl view -proxy http://localhost:8080 -user u_123 -key sk_abc
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/abhilash2200/beyuvana-sub000/internal/session"
)

var client = &http.Client{Timeout: 30 * time.Second}

// Global flags (apply to all commands)
var (
	proxyURL   string
	userID     string
	sessionKey string
	guestToken string
	quiet      bool
	noColor    bool
	verbose    bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen = "", "", ""
	colorYellow, colorCyan, colorGray, colorBold = "", "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "add":
		runAdd(args)
	case "increase":
		runQuantityStep(args, "increase")
	case "decrease":
		runQuantityStep(args, "decrease")
	case "set":
		runSet(args)
	case "remove":
		runRemove(args)
	case "clear":
		runClear(args)
	case "sync":
		runSync(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `cartctl - cart proxy test tool

Usage:
  cartctl <command> [options]

Commands:
  view      Show the current cart snapshot
  add       Add a product to the cart
  increase  Bump a line's quantity by one
  decrease  Lower a line's quantity by one
  set       Set a line to an absolute quantity
  remove    Remove a line from the cart
  clear     Remove every line
  sync      Force a reconcile against the backend

Examples:
  # Add a product (price tier required)
  cartctl add -proxy http://localhost:8080 -user u_123 -key sk_abc -product 5 -tier 17

  # Set quantity from typed input
  cartctl set -proxy http://localhost:8080 -user u_123 -key sk_abc -item 5-1 -qty 3

  # Inspect the cart
  cartctl view -proxy http://localhost:8080 -user u_123 -key sk_abc

Run 'cartctl <command> -h' for command-specific options.
`)
}

// commonFlags registers the flags every command shares.
func commonFlags(fs *flag.FlagSet) {
	fs.StringVar(&proxyURL, "proxy", "http://localhost:8080", "cart proxy base URL")
	fs.StringVar(&userID, "user", "", "shopper user ID")
	fs.StringVar(&sessionKey, "key", "", "shopper session key")
	fs.StringVar(&guestToken, "guest", "", "guest cart token (instead of -user/-key)")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output the item count")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full request/response")
}

// sessionHeader builds the Storefront-Session dictionary value.
func sessionHeader() string {
	var parts []string
	if userID != "" {
		parts = append(parts, fmt.Sprintf("user=%q", userID))
	}
	if sessionKey != "" {
		parts = append(parts, fmt.Sprintf("key=%q", sessionKey))
	}
	if guestToken != "" {
		parts = append(parts, fmt.Sprintf("guest=%q", guestToken))
	}
	return strings.Join(parts, ", ")
}

// =============================================================================
// COMMANDS
// =============================================================================

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	commonFlags(fs)
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	resp, err := doRequest("GET", "/cart", nil)
	if err != nil {
		fatal("Failed to get cart: %v", err)
	}
	printSnapshot(resp)
}

func runAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	commonFlags(fs)
	var productID, tierID, name, unitName string
	var qty, packQty int
	var price int64
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	fs.StringVar(&tierID, "tier", "", "Price tier ID (required)")
	fs.StringVar(&name, "name", "", "Display name for the line")
	fs.StringVar(&unitName, "unit", "", "Unit name of the selected tier")
	fs.IntVar(&qty, "qty", 1, "Quantity")
	fs.IntVar(&packQty, "pack", 1, "Pack size of the selected tier")
	fs.Int64Var(&price, "price", 0, "Unit price in rupees (display only)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cartctl add -product ID -tier ID [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	if productID == "" || tierID == "" {
		fs.Usage()
		os.Exit(1)
	}

	reqBody := map[string]interface{}{
		"product_id":       productID,
		"product_price_id": tierID,
		"name":             name,
		"quantity":         qty,
		"pack_qty":         packQty,
		"unit_name":        unitName,
		"price":            price,
	}

	resp, err := doRequest("POST", "/cart/items", reqBody)
	if err != nil {
		fatal("Failed to add to cart: %v", err)
	}
	printSnapshot(resp)
}

func runQuantityStep(args []string, direction string) {
	fs := flag.NewFlagSet(direction, flag.ExitOnError)
	commonFlags(fs)
	var itemID string
	fs.StringVar(&itemID, "item", "", "Cart line ID (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cartctl %s -item ID [options]\n\nOptions:\n", direction)
		fs.PrintDefaults()
	}
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	if itemID == "" {
		fs.Usage()
		os.Exit(1)
	}

	path := "/cart/items/" + url.PathEscape(itemID) + "/" + direction
	resp, err := doRequest("POST", path, nil)
	if err != nil {
		fatal("Failed to %s quantity: %v", direction, err)
	}
	printSnapshot(resp)
}

func runSet(args []string) {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	commonFlags(fs)
	var itemID string
	var qty float64
	fs.StringVar(&itemID, "item", "", "Cart line ID (required)")
	fs.Float64Var(&qty, "qty", 1, "Absolute quantity")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cartctl set -item ID -qty N [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	if itemID == "" {
		fs.Usage()
		os.Exit(1)
	}

	reqBody := map[string]interface{}{"quantity": qty}
	resp, err := doRequest("PUT", "/cart/items/"+url.PathEscape(itemID)+"/quantity", reqBody)
	if err != nil {
		fatal("Failed to set quantity: %v", err)
	}
	printSnapshot(resp)
}

func runRemove(args []string) {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	commonFlags(fs)
	var itemID string
	fs.StringVar(&itemID, "item", "", "Cart line ID (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cartctl remove -item ID [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	if itemID == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("DELETE", "/cart/items/"+url.PathEscape(itemID), nil)
	if err != nil {
		fatal("Failed to remove item: %v", err)
	}
	printSnapshot(resp)
}

func runClear(args []string) {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	commonFlags(fs)
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	resp, err := doRequest("DELETE", "/cart", nil)
	if err != nil {
		fatal("Failed to clear cart: %v", err)
	}
	printSnapshot(resp)
}

func runSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	commonFlags(fs)
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	resp, err := doRequest("POST", "/cart/sync", nil)
	if err != nil {
		fatal("Failed to sync cart: %v", err)
	}
	printSnapshot(resp)
}

// =============================================================================
// HTTP HELPERS
// =============================================================================

func doRequest(method, path string, body interface{}) (map[string]interface{}, error) {
	var reqBody io.Reader
	var reqJSON []byte

	if body != nil {
		var err error
		reqJSON, err = json.MarshalIndent(body, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(reqJSON)
	}

	reqURL := proxyURL + path
	req, err := http.NewRequest(method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if header := sessionHeader(); header != "" {
		req.Header.Set(session.HeaderName, header)
	}

	if !quiet {
		printRequest(method, path, reqJSON)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if !quiet {
		printResponse(resp.StatusCode, respBody, duration)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	return result, nil
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

// printSnapshot renders a cart snapshot response.
func printSnapshot(resp map[string]interface{}) {
	printNotices(resp)

	items, _ := resp["items"].([]interface{})
	if quiet {
		fmt.Println(len(items))
		return
	}

	printSuccess("Cart: %d line(s)", len(items))
	for _, it := range items {
		itemMap, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := itemMap["id"].(string)
		name, _ := itemMap["name"].(string)
		qty, _ := itemMap["quantity"].(float64)
		price, _ := itemMap["price"].(float64)
		fmt.Printf("  %s%s%s x%d  %s  (%s)\n",
			colorCyan, id, colorReset, int(qty), formatRupees(price), name)
	}

	if subtotal, ok := resp["subtotal"].(float64); ok {
		fmt.Printf("  Subtotal: %s%s%s\n", colorGreen, formatRupees(subtotal), colorReset)
	}
	if loading, ok := resp["loading"].(bool); ok && loading {
		printInfo("sync in progress")
	}
	if enhancing, ok := resp["enhancing"].(bool); ok && enhancing {
		printInfo("enhancement in progress")
	}
}

func printNotices(resp map[string]interface{}) {
	if quiet {
		return
	}
	notices, ok := resp["notices"].([]interface{})
	if !ok || len(notices) == 0 {
		return
	}

	for _, n := range notices {
		noticeMap, ok := n.(map[string]interface{})
		if !ok {
			continue
		}
		level, _ := noticeMap["level"].(string)
		message, _ := noticeMap["message"].(string)
		if message == "" {
			continue
		}

		switch level {
		case "error":
			printError("%s", message)
		case "success":
			printSuccess("%s", message)
		default:
			fmt.Printf("%s  ℹ %s%s\n", colorGray, message, colorReset)
		}
	}
}

func printRequest(method, path string, body []byte) {
	fmt.Printf("\n%s▶ REQUEST%s %s%s %s%s\n", colorYellow, colorReset, colorBold, method, path, colorReset)
	if body != nil {
		printJSON(body, "  ")
	}
}

func printResponse(status int, body []byte, duration time.Duration) {
	statusColor := colorGreen
	if status >= 400 {
		statusColor = colorRed
	}
	fmt.Printf("\n%s◀ RESPONSE%s %s%d%s (%v)\n", colorCyan, colorReset, statusColor, status, colorReset, duration)
	printJSON(body, "  ")
}

func printJSON(data []byte, prefix string) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}

	output := pretty.String()
	if !verbose {
		lines := strings.Split(output, "\n")
		if len(lines) > 30 {
			lines = append(lines[:25], fmt.Sprintf("%s  %s(%d more lines, use -v for full output)%s", prefix, colorGray, len(lines)-25, colorReset))
			output = strings.Join(lines, "\n")
		}
	}
	fmt.Println(output)
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printError(format string, args ...interface{}) {
	fmt.Printf("%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

func formatRupees(v float64) string {
	return fmt.Sprintf("₹%.0f", v)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
