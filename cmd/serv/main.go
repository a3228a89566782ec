package main

import (
	"log"

	"github.com/dushixiang/magicbutton/internal"
	"github.com/spf13/cobra"
)

var (
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "magicbutton",
	Short: "MagicButton - 策略运行结果看板",
	Long:  ``,
	RunE: func(cmd *cobra.Command, args []string) error {
		return internal.Run(configFile)
	},
}

func init() {
	// 全局配置文件标志
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "配置文件路径")

	rootCmd.AddCommand(strategiesCmd, reportCmd, ohlcvCmd, configCmd, hashPasswordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
