// seed_demo genera el script SQL con el vendedor, cliente y venta de demostración
// que usa el modo memoria, para probar el flujo DTE contra PostgreSQL.
//
// Uso: go run ./cmd/seed_demo
// Escribe: internal/infrastructure/postgres/migrations/002_seed_demo.sql
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jhoicas/facturacion-dte/internal/infrastructure/memory"
)

func main() {
	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "002_seed_demo.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	writeSeed(out, memory.NewDemoData(time.Now().UTC()))
	fmt.Printf("Generado %s (venta %s)\n", outPath, memory.DemoSaleID)
}

func writeSeed(out io.Writer, d memory.DemoData) {
	u, c, s := d.Seller, d.Customer, d.Sale
	fmt.Fprintln(out, "-- Datos de demostración para el flujo DTE")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "INSERT INTO users (id, email, name, business_name, tax_id, street, city, role, status)")
	fmt.Fprintf(out, "VALUES ('%s', '%s', '%s', '%s', '%s', '%s', '%s', '%s', '%s')\n",
		u.ID, escapeSQL(u.Email), escapeSQL(u.Name), escapeSQL(u.BusinessName), escapeSQL(u.TaxID),
		escapeSQL(u.Address.Street), escapeSQL(u.Address.City), u.Role, u.Status)
	fmt.Fprintln(out, "ON CONFLICT (id) DO NOTHING;")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "INSERT INTO customers (id, name, tax_id, email, street, city)")
	fmt.Fprintf(out, "VALUES ('%s', '%s', '%s', '%s', '%s', '%s')\n",
		c.ID, escapeSQL(c.Name), escapeSQL(c.TaxID), escapeSQL(c.Email),
		escapeSQL(c.Address.Street), escapeSQL(c.Address.City))
	fmt.Fprintln(out, "ON CONFLICT (id) DO NOTHING;")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "INSERT INTO sales (id, customer_id, seller_id, subtotal, tax_total, total, status)")
	fmt.Fprintf(out, "VALUES ('%s', '%s', '%s', %s, %s, %s, '%s')\n",
		s.ID, s.CustomerID, s.SellerID,
		s.Subtotal.StringFixed(2), s.TaxTotal.StringFixed(2), s.Total.StringFixed(2), s.Status)
	fmt.Fprintln(out, "ON CONFLICT (id) DO NOTHING;")
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
