// certinfo diagnostica un certificado .p12/.pfx o PEM antes de configurarlo en
// SIGNATURE_CERT_PATH: muestra los metadatos que tomaría el registro y su vigencia.
//
// Uso: go run ./cmd/certinfo <ruta> [contraseña] [nit]
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
	"github.com/jhoicas/facturacion-dte/internal/infrastructure/signer"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: certinfo <ruta> [contraseña] [nit]")
		os.Exit(2)
	}
	certPath := os.Args[1]
	password, taxID := "", signer.DefaultIssuerTaxID
	if len(os.Args) > 2 {
		password = os.Args[2]
	}
	if len(os.Args) > 3 {
		taxID = os.Args[3]
	}

	fmt.Println("DIAGNÓSTICO DE CERTIFICADO")
	fmt.Println("--------------------------")
	fmt.Printf("Archivo: %s\n", certPath)

	cert, err := signer.LoadCertificateFile(certPath, password, taxID)
	if err != nil {
		fmt.Println("\nERROR:")
		fmt.Printf("   %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("NIT:          %s\n", cert.IssuerTaxID)
	fmt.Printf("Emisor:       %s\n", cert.IssuerDN)
	fmt.Printf("Sujeto:       %s\n", cert.SubjectDN)
	fmt.Printf("Serie:        %s\n", cert.SerialNumber)
	fmt.Printf("Vigencia:     %s → %s\n", cert.ValidFrom.Format(time.DateOnly), cert.ValidTo.Format(time.DateOnly))
	fmt.Printf("Algoritmo:    %s (%d bits)\n", cert.Algorithm, cert.KeySize)
	fmt.Printf("Estado hoy:   %s\n", cert.WindowStatus(time.Now()))

	if missing := cert.MissingFields(); len(missing) > 0 {
		fmt.Printf("\nCampos faltantes: %v\n", missing)
		os.Exit(1)
	}
	if cert.Algorithm != entity.SignatureAlgorithm {
		fmt.Printf("\nAdvertencia: el algoritmo %s no es %s; las firmas validarán con error.\n", cert.Algorithm, entity.SignatureAlgorithm)
	}
}
