package main

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeovahfialho/sales-analyzer/internal/config"
	"github.com/jeovahfialho/sales-analyzer/internal/domain"
	"github.com/jeovahfialho/sales-analyzer/internal/etl"
	"github.com/jeovahfialho/sales-analyzer/internal/ingestion"
	"github.com/jeovahfialho/sales-analyzer/internal/service"
	"github.com/jeovahfialho/sales-analyzer/internal/storage/cache"
	"github.com/jeovahfialho/sales-analyzer/internal/storage/csvfile"
	"github.com/jeovahfialho/sales-analyzer/internal/storage/postgres"
	pkglogger "github.com/jeovahfialho/sales-analyzer/pkg/logger"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "sales-analyzer",
		Short: "Sales Analyzer CLI",
		Long: `CLI para análise de vendas.
Permite baixar, carregar, consultar e exportar dados de vendas.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			return pkglogger.InitWithFormat(level, "console", false)
		},
	}
	rootCmd.PersistentFlags().String("log-level", "warn", "Nível de log (debug, info, warn, error)")

	// Comando download
	var downloadCmd = &cobra.Command{
		Use:   "download [urls...]",
		Short: "Baixa arquivos CSV de vendas",
		Long: `Baixa arquivos de vendas via HTTP. Sem argumentos, usa DATASET_URL.
Arquivos ZIP são extraídos automaticamente.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir, _ := cmd.Flags().GetString("output")
			extract, _ := cmd.Flags().GetBool("extract")
			workers, _ := cmd.Flags().GetInt("workers")
			return downloadFiles(args, outputDir, extract, workers)
		},
	}

	downloadCmd.Flags().StringP("output", "o", "./data", "Diretório de saída")
	downloadCmd.Flags().BoolP("extract", "e", true, "Extrair arquivos ZIP automaticamente")
	downloadCmd.Flags().IntP("workers", "w", 4, "Downloads simultâneos")

	// Comando list
	var listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lista arquivos disponíveis para carregar",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("dir")
			return listFiles(dataDir)
		},
	}

	listCmd.Flags().StringP("dir", "d", "./data", "Diretório dos dados")

	// Comando load
	var loadCmd = &cobra.Command{
		Use:   "load [files...]",
		Short: "Carrega arquivos CSV na tabela sales",
		Long: `Carrega arquivos CSV no banco de dados.
Aceita múltiplos arquivos e suporta wildcards (ex: data/*.csv)`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return loadFiles(args)
		},
	}

	// Comando init-db
	var initDBCmd = &cobra.Command{
		Use:   "init-db",
		Short: "Cria a tabela sales e seus índices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initDB()
		},
	}

	// Comando summary
	var summaryCmd = &cobra.Command{
		Use:   "summary",
		Short: "Mostra o resumo de vendas",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := filtersFromFlags(cmd)
			if err != nil {
				return err
			}
			return showSummary(filters)
		},
	}
	addFilterFlags(summaryCmd)

	// Comando sales
	var salesCmd = &cobra.Command{
		Use:   "sales",
		Short: "Lista vendas com filtro, ordenação e paginação",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := filtersFromFlags(cmd)
			if err != nil {
				return err
			}
			page, _ := cmd.Flags().GetInt("page")
			pageSize, _ := cmd.Flags().GetInt("page-size")
			sortBy, _ := cmd.Flags().GetString("sort-by")
			sortOrder, _ := cmd.Flags().GetString("sort-order")
			return listSales(service.SalesQuery{
				Filters: filters,
				Sort:    domain.SortSpec{Field: sortBy, Direction: sortOrder},
				Page:    domain.PageFromNumber(page, pageSize),
			})
		},
	}
	addFilterFlags(salesCmd)
	salesCmd.Flags().Int("page", 1, "Página")
	salesCmd.Flags().Int("page-size", 20, "Itens por página")
	salesCmd.Flags().String("sort-by", "", "Coluna de ordenação")
	salesCmd.Flags().String("sort-order", domain.SortDesc, "asc ou desc")

	// Comando etl
	var etlCmd = &cobra.Command{
		Use:   "etl",
		Short: "Gera o parquet processado a partir da fonte configurada",
		RunE: func(cmd *cobra.Command, args []string) error {
			dest, _ := cmd.Flags().GetString("dest")
			return runETL(dest)
		},
	}
	etlCmd.Flags().String("dest", "", "Arquivo parquet de destino (padrão: ETL_GOLD_PARQUET)")

	// Comando gold
	var goldCmd = &cobra.Command{
		Use:   "gold",
		Short: "Exporta o parquet processado como CSV gold",
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportGold()
		},
	}

	// Comando health
	var healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Verifica saúde do sistema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkHealth()
		},
	}

	// Adiciona todos os comandos
	rootCmd.AddCommand(downloadCmd, listCmd, loadCmd, initDBCmd, summaryCmd, salesCmd, etlCmd, goldCmd, healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("start-date", "s", "", "Data inicial (YYYY-MM-DD)")
	cmd.Flags().StringP("end-date", "e", "", "Data final inclusiva (YYYY-MM-DD)")
	cmd.Flags().StringP("product", "p", "", "Produto")
	cmd.Flags().StringP("region", "r", "", "Região")
	cmd.Flags().Int64("min-quantity", -1, "Quantidade mínima")
}

func filtersFromFlags(cmd *cobra.Command) (domain.FilterSpec, error) {
	var f domain.FilterSpec

	for _, flag := range []struct {
		name string
		dest **time.Time
	}{
		{"start-date", &f.DateFrom},
		{"end-date", &f.DateTo},
	} {
		raw, _ := cmd.Flags().GetString(flag.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(domain.DateLayout, raw)
		if err != nil {
			return f, fmt.Errorf("data inválida em --%s: %w", flag.name, err)
		}
		*flag.dest = &t
	}

	f.Product, _ = cmd.Flags().GetString("product")
	f.Region, _ = cmd.Flags().GetString("region")
	if minQty, _ := cmd.Flags().GetInt64("min-quantity"); minQty >= 0 {
		f.MinQuantity = &minQty
	}
	return f.Normalized(), nil
}

// downloadFiles baixa os arquivos e extrai os ZIPs
func downloadFiles(urls []string, outputDir string, extract bool, workers int) error {
	if len(urls) == 0 {
		cfg := config.Load()
		if cfg.DatasetURL == "" {
			return fmt.Errorf("nenhuma URL informada e DATASET_URL vazio")
		}
		urls = []string{cfg.DatasetURL}
	}

	fmt.Printf("🚀 Baixando %d arquivo(s) para %s...\n", len(urls), outputDir)

	downloader := ingestion.NewDownloader(workers)
	downloaded, errs := downloader.DownloadAll(context.Background(), urls, outputDir)

	for _, err := range errs {
		fmt.Printf("❌ %v\n", err)
	}
	for _, p := range downloaded {
		fmt.Printf("✅ %s\n", filepath.Base(p))
	}

	if len(downloaded) == 0 {
		return fmt.Errorf("nenhum arquivo foi baixado - verifique a URL ou a conectividade")
	}

	if extract {
		for _, p := range downloaded {
			if !strings.HasSuffix(strings.ToLower(p), ".zip") {
				continue
			}
			extracted, err := unzipFile(p, outputDir)
			if err != nil {
				fmt.Printf("❌ Erro ao extrair %s: %v\n", filepath.Base(p), err)
				continue
			}
			fmt.Printf("📦 Extraído: %s (%d arquivos CSV)\n", filepath.Base(p), len(extracted))
		}
	}

	fmt.Println("\n✅ Download concluído!")
	fmt.Println("💡 Próximo passo: use 'load data/*.csv' para carregar os dados no banco")
	return nil
}

// unzipFile descompacta um arquivo ZIP e retorna os CSVs extraídos
func unzipFile(zipPath, destDir string) ([]string, error) {
	var extractedFiles []string

	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return nil, err
	}

	for _, file := range reader.File {
		path := filepath.Join(root, file.Name)
		if !strings.HasPrefix(path, root+string(os.PathSeparator)) {
			return nil, fmt.Errorf("caminho inválido no zip: %s", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0755); err != nil {
				return nil, err
			}
			continue
		}

		if err := extractFile(file, path); err != nil {
			return nil, err
		}

		if strings.HasSuffix(strings.ToLower(file.Name), ".csv") {
			extractedFiles = append(extractedFiles, path)
		}
	}

	return extractedFiles, nil
}

func extractFile(file *zip.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// listFiles lista arquivos disponíveis
func listFiles(dataDir string) error {
	fmt.Printf("📂 Listando arquivos em %s\n\n", dataDir)

	found := false
	for _, ext := range []string{"csv", "zip", "parquet"} {
		files, err := filepath.Glob(filepath.Join(dataDir, "*."+ext))
		if err != nil {
			return err
		}
		if len(files) == 0 {
			continue
		}
		found = true

		fmt.Printf("📊 %d arquivos %s:\n", len(files), strings.ToUpper(ext))
		totalSize := int64(0)
		for _, file := range files {
			info, err := os.Stat(file)
			if err != nil {
				continue
			}
			totalSize += info.Size()
			fmt.Printf("  - %-30s %10s\n", filepath.Base(file), formatBytes(info.Size()))
		}
		fmt.Printf("💾 Tamanho total: %s\n\n", formatBytes(totalSize))
	}

	if !found {
		fmt.Println("❌ Nenhum arquivo encontrado")
		fmt.Println("💡 Use 'download' para baixar dados de vendas")
	}
	return nil
}

// connectDB conecta ao PostgreSQL
func connectDB(cfg *config.Config) (*postgres.DB, error) {
	db, err := postgres.NewDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("erro ao conectar ao banco: %w", err)
	}
	return db, nil
}

// connectRedis conecta ao Redis
func connectRedis(cfg *config.Config) *cache.RedisCache {
	redisCache, err := cache.NewRedisCache(cfg)
	if err != nil {
		fmt.Printf("Aviso: Redis não disponível: %v\n", err)
		return nil
	}
	return redisCache
}

// openSource abre a fonte de vendas configurada em ETL_SOURCE
func openSource(cfg *config.Config) (service.Source, func(), error) {
	if !cfg.UsePostgres() {
		parser := ingestion.NewParser(cfg.BatchSize, cfg.Workers)
		return csvfile.NewSource(cfg.CSVPath, parser), func() {}, nil
	}

	db, err := connectDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewSalesRepository(db.Pool()), db.Close, nil
}

func newSalesService(cfg *config.Config) (*service.SalesService, func(), error) {
	source, closeFn, err := openSource(cfg)
	if err != nil {
		return nil, nil, err
	}
	loader := service.NewLoader(source, nil, cfg.SalesCacheTTL)
	return service.NewSalesService(loader), closeFn, nil
}

func initDB() error {
	ctx := context.Background()
	cfg := config.Load()

	db, err := connectDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("🔄 Criando tabela sales...")
	if err := db.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("erro ao criar schema: %w", err)
	}

	fmt.Println("✅ Schema pronto!")
	return nil
}

func loadFiles(patterns []string) error {
	ctx := context.Background()
	cfg := config.Load()

	files, err := expandPaths(patterns)
	if err != nil {
		return err
	}

	db, err := connectDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.DBAutoInit {
		if err := db.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("erro ao criar schema: %w", err)
		}
	}

	parser := ingestion.NewParser(cfg.BatchSize, cfg.Workers)
	loader := ingestion.NewBulkLoader(db.Pool(), cfg.BatchSize)
	ingestionService := service.NewIngestionService(parser, loader, cfg.Workers)

	fmt.Printf("📥 Carregando %d arquivo(s)...\n\n", len(files))

	results, err := ingestionService.ProcessFiles(ctx, files)
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Error != "" {
			fmt.Printf("❌ %s\n", r)
		} else {
			fmt.Printf("✅ %s\n", r)
		}
	}

	loaded, failed := service.Summarize(results)
	fmt.Printf("\n📊 Total: %s registros carregados, %d arquivo(s) com erro\n", formatNumber(loaded), failed)
	return nil
}

func showSummary(filters domain.FilterSpec) error {
	cfg := config.Load()

	salesService, closeFn, err := newSalesService(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	s, err := salesService.Summary(context.Background(), &filters)
	if err != nil {
		return fmt.Errorf("erro ao calcular resumo: %w", err)
	}

	fmt.Println("📊 Resumo de vendas:")
	fmt.Printf("├─ Receita total: R$ %s\n", formatMoney(s.TotalRevenue))
	fmt.Printf("├─ Quantidade: %s\n", formatNumber(s.TotalQuantity))
	fmt.Printf("├─ Vendas: %s\n", formatNumber(int64(s.SalesCount)))
	fmt.Printf("├─ Ticket médio: R$ %s\n", formatMoney(s.AvgTicket))
	fmt.Printf("├─ Produtos: %d (top: %s)\n", s.UniqueProducts, strings.Join(s.TopProducts, ", "))
	fmt.Printf("├─ Regiões: %s\n", strings.Join(s.Regions, ", "))
	if s.StartDate != nil && s.EndDate != nil {
		fmt.Printf("└─ Período: %s a %s\n", *s.StartDate, *s.EndDate)
	} else {
		fmt.Println("└─ Período: -")
	}

	for _, w := range s.Warnings {
		fmt.Printf("⚠️  %s\n", w)
	}
	return nil
}

func listSales(q service.SalesQuery) error {
	cfg := config.Load()

	salesService, closeFn, err := newSalesService(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	page, err := salesService.ListSales(context.Background(), q)
	if err != nil {
		return fmt.Errorf("erro ao listar vendas: %w", err)
	}

	fmt.Printf("%-10s %-12s %-20s %8s %12s %12s %s\n", "order_id", "region", "product", "qtd", "preço", "total", "data")
	for _, r := range page.Data {
		date := "-"
		if !r.Date.IsZero() {
			date = r.Date.Format(domain.DateLayout)
		}
		fmt.Printf("%-10d %-12s %-20s %8d %12s %12s %s\n",
			r.OrderID, r.Region, r.Product, r.Quantity, formatMoney(r.UnitPrice), formatMoney(r.Total), date)
	}

	p := page.Pagination
	fmt.Printf("\nPágina %d de %d (%s vendas)\n", p.CurrentPage, p.TotalPages, formatNumber(int64(p.TotalItems)))
	return nil
}

func newPipeline(cfg *config.Config) (*etl.Pipeline, func(), error) {
	source, closeFn, err := openSource(cfg)
	if err != nil {
		return nil, nil, err
	}
	return etl.NewPipeline(source, cfg.GoldParquet, cfg.GoldCSV), closeFn, nil
}

func runETL(dest string) error {
	cfg := config.Load()

	pipeline, closeFn, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	fmt.Println("🔄 Executando ETL...")
	result, err := pipeline.Run(context.Background(), dest)
	if err != nil {
		return fmt.Errorf("erro no etl: %w", err)
	}

	fmt.Printf("✅ %s linhas gravadas em %s\n", formatNumber(int64(result.Rows)), result.Dest)
	return nil
}

func exportGold() error {
	cfg := config.Load()

	pipeline, closeFn, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := pipeline.ExportGold(context.Background())
	if err != nil {
		return fmt.Errorf("erro ao exportar gold: %w", err)
	}

	if result.Status == etl.StatusNoParquet {
		fmt.Printf("⚠️  %s\n", result.Message)
		return nil
	}
	fmt.Printf("✅ %s linhas exportadas para %s\n", formatNumber(int64(result.Rows)), result.CSV)
	return nil
}

// checkHealth verifica a saúde do sistema
func checkHealth() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cfg := config.Load()

	fmt.Println("🏥 Verificando saúde do sistema...")
	fmt.Println()

	fmt.Printf("Fonte (%s): ", cfg.DataSource)
	source, closeFn, err := openSource(cfg)
	if err != nil {
		fmt.Printf("❌ Erro: %v\n", err)
	} else {
		table, err := source.Read(ctx, nil)
		if err != nil {
			fmt.Printf("❌ Erro: %v\n", err)
		} else {
			fmt.Printf("✅ OK (%s linhas)\n", formatNumber(int64(table.Len())))
		}
		closeFn()
	}

	fmt.Print("Redis: ")
	redisCache := connectRedis(cfg)
	if redisCache == nil {
		fmt.Println("❌ Não disponível")
	} else {
		defer redisCache.Close()
		if err := redisCache.HealthCheck(ctx); err != nil {
			fmt.Printf("❌ Erro: %v\n", err)
		} else {
			fmt.Println("✅ OK")
		}
	}

	fmt.Println("\n✅ Verificação concluída!")
	return nil
}
