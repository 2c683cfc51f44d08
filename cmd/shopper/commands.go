package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	productmodels "github.com/SKANDA-SR/e-commerse-website/internal/product/models"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/api"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/cart"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/checkout"
)

var errUsage = errors.New("invalid arguments, run shopper -h for usage")

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "products":
		return a.products(ctx, args)
	case "product":
		if len(args) != 1 {
			return errUsage
		}
		p, err := a.api.Product(ctx, args[0])
		if err != nil {
			return err
		}
		a.printProduct(p)
		return nil
	case "featured":
		products, err := a.api.Featured(ctx)
		if err != nil {
			return err
		}
		a.printProducts(products)
		return nil
	case "categories":
		categories, err := a.api.Categories(ctx)
		if err != nil {
			return err
		}
		for _, c := range categories {
			fmt.Fprintln(a.out, c)
		}
		return nil
	case "register":
		if len(args) != 3 {
			return errUsage
		}
		u, err := a.session.Register(ctx, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Welcome, %s!\n", u.Name)
		return nil
	case "login":
		if len(args) != 2 {
			return errUsage
		}
		u, err := a.session.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Signed in as %s (%s)\n", u.Name, u.Role)
		return nil
	case "logout":
		if err := a.session.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Signed out")
		return nil
	case "profile":
		u, err := a.session.Profile(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s <%s> %s\n", u.Name, u.Email, u.Role)
		return nil
	case "cart":
		a.printCart()
		return nil
	case "add":
		return a.add(ctx, args)
	case "remove":
		if len(args) != 1 {
			return errUsage
		}
		if err := a.cart.RemoveItem(ctx, args[0]); err != nil {
			return err
		}
		a.printCart()
		return nil
	case "qty":
		if len(args) != 2 {
			return errUsage
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return errUsage
		}
		if err := a.cart.UpdateQuantity(ctx, args[0], n); err != nil {
			return err
		}
		a.printCart()
		return nil
	case "validate":
		warnings, err := a.cart.Validate(ctx, a.api)
		if err != nil {
			return err
		}
		a.printWarnings(warnings)
		a.printCart()
		return nil
	case "checkout":
		return a.placeOrder(ctx, args)
	case "orders":
		return a.orders(ctx, args)
	case "order":
		if len(args) != 1 {
			return errUsage
		}
		return a.session.Authorized(ctx, func(token string) error {
			o, err := a.api.Order(ctx, token, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s  %s  %s  total %s\n", o.OrderNumber, o.Status, o.CreatedAt.Format("2006-01-02"), cart.FormatCurrency(o.TotalPrice))
			for _, it := range o.OrderItems {
				fmt.Fprintf(a.out, "  %d x %s @ %s\n", it.Quantity, it.Name, cart.FormatCurrency(it.Price))
			}
			return nil
		})
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) products(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var f api.ProductFilter
	fs.StringVar(&f.Search, "search", "", "")
	fs.StringVar(&f.Category, "category", "", "")
	fs.StringVar(&f.MinPrice, "min", "", "")
	fs.StringVar(&f.MaxPrice, "max", "", "")
	fs.StringVar(&f.SortBy, "sort", "", "")
	fs.IntVar(&f.Page, "page", 1, "")
	fs.IntVar(&f.Limit, "limit", productmodels.DefaultLimit, "")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	page, err := a.api.Products(ctx, f)
	if err != nil {
		return err
	}
	a.printProducts(page.Products)
	fmt.Fprintf(a.out, "page %d of %d (%d products)\n", page.CurrentPage, page.TotalPages, page.Total)
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	qty := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return errUsage
		}
		qty = n
	}
	p, err := a.api.Product(ctx, args[0])
	if err != nil {
		return err
	}
	if err := a.cart.AddItem(ctx, p, qty); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s added to cart\n", p.Name)
	return nil
}

func (a *app) placeOrder(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var req checkout.Request
	fs.StringVar(&req.ShippingAddress.Street, "street", "", "")
	fs.StringVar(&req.ShippingAddress.City, "city", "", "")
	fs.StringVar(&req.ShippingAddress.State, "state", "", "")
	fs.StringVar(&req.ShippingAddress.ZipCode, "zip", "", "")
	fs.StringVar(&req.ShippingAddress.Country, "country", "", "")
	fs.StringVar(&req.PaymentMethod, "payment", "", "")
	fs.StringVar(&req.OrderNotes, "notes", "", "")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	res, err := a.checkout.PlaceOrder(ctx, req)
	var changed *checkout.CartChangedError
	if errors.As(err, &changed) {
		a.printWarnings(changed.Warnings)
		a.printCart()
		return errors.New("cart updated, review it and run checkout again")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order %s placed (id %s)\n", res.OrderNumber, res.OrderID)
	return nil
}

func (a *app) orders(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	page := fs.Int("page", 1, "")
	limit := fs.Int("limit", 10, "")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return a.session.Authorized(ctx, func(token string) error {
		res, err := a.api.MyOrders(ctx, token, *page, *limit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ORDER\tSTATUS\tDATE\tTOTAL")
		for _, o := range res.Orders {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.OrderNumber, o.Status, o.CreatedAt.Format("2006-01-02"), cart.FormatCurrency(o.TotalPrice))
		}
		return w.Flush()
	})
}

func (a *app) printProducts(products []productmodels.Product) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Category, cart.FormatCurrency(p.Price), p.Stock)
	}
	_ = w.Flush()
}

func (a *app) printProduct(p *productmodels.Product) {
	fmt.Fprintf(a.out, "%s\n%s\n%s  %s  stock %d\n", p.Name, p.Description, p.Category, cart.FormatCurrency(p.Price), p.Stock)
	for k, v := range p.Specifications {
		fmt.Fprintf(a.out, "  %s: %s\n", k, v)
	}
}

func (a *app) printCart() {
	s := a.cart.Summary()
	if s.ItemCount == 0 {
		fmt.Fprintln(a.out, "Your cart is empty")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tQTY\tPRICE\tLINE")
	for _, l := range s.Items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", l.ID, l.Name, l.Quantity, cart.FormatCurrency(l.Price), cart.FormatCurrency(l.Price*float64(l.Quantity)))
	}
	fmt.Fprintf(w, "\t\t\tSubtotal\t%s\n", cart.FormatCurrency(s.Subtotal))
	fmt.Fprintf(w, "\t\t\tTax\t%s\n", cart.FormatCurrency(s.Tax))
	fmt.Fprintf(w, "\t\t\tShipping\t%s\n", cart.FormatCurrency(s.Shipping))
	fmt.Fprintf(w, "\t\t\tTotal\t%s\n", cart.FormatCurrency(s.Total))
	_ = w.Flush()
}

func (a *app) printWarnings(warnings []cart.Warning) {
	for _, w := range warnings {
		fmt.Fprintln(a.out, "warning:", w.Message)
	}
}
