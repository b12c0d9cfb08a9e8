// Command smoketest drives a running catalogo server through a headless
// browser, exactly like any other user agent: it signs in, sorts the
// catalog, creates, views, edits and deletes a product, searches, reads
// the statistics page, provisions a user through the admin form and then
// signs in as that user. Every step is screenshotted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/net/html"
)

func main() {
	baseURL := flag.String("base", "http://localhost:5000", "base URL of the running server")
	username := flag.String("user", "admin", "username to sign in with")
	password := flag.String("pass", "admin123", "password to sign in with")
	outDir := flag.String("out", "screenshots", "directory for step screenshots")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Failed to create screenshot directory: %v", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 1024),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, 3*time.Minute)
	defer timeoutCancel()

	s := &smokeTest{ctx: taskCtx, baseURL: *baseURL, outDir: *outDir}

	s.login(*username, *password, "login.png")
	s.sortCatalog()
	productID := s.addProduct()
	s.viewProduct(productID)
	s.editProduct(productID)
	s.deleteProduct(productID)
	s.searchProducts()
	s.stats()
	s.addUser("francis", "francis123")
	s.logout()
	s.login("francis", "francis123", "login_new_user.png")

	log.Println("Smoke test completed")
}

type smokeTest struct {
	ctx     context.Context
	baseURL string
	outDir  string
}

func (s *smokeTest) run(step string, actions ...chromedp.Action) {
	if err := chromedp.Run(s.ctx, actions...); err != nil {
		log.Fatalf("Step %q failed: %v", step, err)
	}
	log.Printf("Step %q completed", step)
}

func (s *smokeTest) screenshot(name string) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		var buf []byte
		if err := chromedp.CaptureScreenshot(&buf).Do(ctx); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(s.outDir, name), buf, 0644)
	}
}

func (s *smokeTest) login(username, password, shot string) {
	s.run("login",
		chromedp.Navigate(s.baseURL+"/login"),
		chromedp.WaitVisible(`input[name="username"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="username"]`, username, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="password"]`, password, chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		chromedp.WaitVisible(`#products`, chromedp.ByQuery),
		s.screenshot(shot),
	)
}

func (s *smokeTest) sortCatalog() {
	for _, order := range []string{"id", "name", "price"} {
		s.run("sort by "+order,
			chromedp.Navigate(fmt.Sprintf("%s/index?order_by=%s", s.baseURL, order)),
			chromedp.WaitVisible(`#products`, chromedp.ByQuery),
			s.screenshot("sorted_by_"+order+".png"),
		)
	}
}

// addProduct submits the add form and returns the id the store assigned,
// read back from the rendered catalog
func (s *smokeTest) addProduct() int64 {
	s.run("add product",
		chromedp.Navigate(s.baseURL+"/add"),
		chromedp.WaitVisible(`input[name="name"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="name"]`, "Smoke Test Product", chromedp.ByQuery),
		chromedp.SendKeys(`input[name="price"]`, "700.0", chromedp.ByQuery),
		chromedp.SendKeys(`input[name="description"]`, "Created by the smoke test", chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		chromedp.WaitVisible(`#products`, chromedp.ByQuery),
		s.screenshot("product_added.png"),
	)

	var page string
	s.run("read catalog", chromedp.OuterHTML("html", &page, chromedp.ByQuery))

	id, err := lastProductID(page)
	if err != nil {
		log.Fatalf("Failed to locate the new product in the catalog: %v", err)
	}
	return id
}

func (s *smokeTest) viewProduct(id int64) {
	s.run("view product",
		chromedp.Navigate(fmt.Sprintf("%s/view/%d", s.baseURL, id)),
		chromedp.WaitVisible(`#product-detail`, chromedp.ByQuery),
		s.screenshot("view_product.png"),
	)
}

func (s *smokeTest) editProduct(id int64) {
	s.run("edit product",
		chromedp.Navigate(fmt.Sprintf("%s/edit/%d", s.baseURL, id)),
		chromedp.WaitVisible(`input[name="name"]`, chromedp.ByQuery),
		chromedp.SetValue(`input[name="name"]`, "Smoke Test Product (edited)", chromedp.ByQuery),
		chromedp.SetValue(`input[name="price"]`, "150.0", chromedp.ByQuery),
		chromedp.SetValue(`input[name="description"]`, "Edited by the smoke test", chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		chromedp.WaitVisible(`#products`, chromedp.ByQuery),
		s.screenshot("product_edited.png"),
	)
}

func (s *smokeTest) deleteProduct(id int64) {
	s.run("delete product",
		chromedp.Navigate(fmt.Sprintf("%s/delete/%d", s.baseURL, id)),
		chromedp.WaitVisible(`#products`, chromedp.ByQuery),
		s.screenshot("product_deleted.png"),
	)
}

func (s *smokeTest) searchProducts() {
	s.run("search products",
		chromedp.Navigate(s.baseURL+"/search"),
		chromedp.WaitVisible(`input[name="query"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="query"]`, "Smoke", chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		chromedp.WaitVisible(`body`, chromedp.ByQuery),
		s.screenshot("product_searched.png"),
	)
}

func (s *smokeTest) stats() {
	s.run("stats",
		chromedp.Navigate(s.baseURL+"/stats"),
		chromedp.WaitVisible(`h1`, chromedp.ByQuery),
		s.screenshot("stats.png"),
	)
}

func (s *smokeTest) addUser(username, password string) {
	s.run("add user",
		chromedp.Navigate(s.baseURL+"/admin/add_user"),
		chromedp.WaitVisible(`input[name="username"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="username"]`, username, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="password"]`, password, chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		chromedp.WaitVisible(`#products`, chromedp.ByQuery),
		s.screenshot("user_created.png"),
	)
}

func (s *smokeTest) logout() {
	s.run("logout",
		chromedp.Navigate(s.baseURL+"/logout"),
		chromedp.WaitVisible(`input[name="username"]`, chromedp.ByQuery),
		s.screenshot("logout.png"),
	)
}

// lastProductID walks the rendered catalog page and returns the highest
// product id linked from it. Ids are store-assigned and ascending, so the
// highest one belongs to the product created last.
func lastProductID(page string) (int64, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return 0, fmt.Errorf("failed to parse catalog page: %w", err)
	}

	var maxID int64 = -1
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" || !strings.HasPrefix(attr.Val, "/view/") {
					continue
				}
				id, err := strconv.ParseInt(strings.TrimPrefix(attr.Val, "/view/"), 10, 64)
				if err == nil && id > maxID {
					maxID = id
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if maxID < 0 {
		return 0, fmt.Errorf("no product links found on the catalog page")
	}
	return maxID, nil
}
