package help

const ColdstartYAML = `# litchar Quick Start

kinds:
  description: "Short character descriptions (sparknotes, cliffsnotes, litcharts, gradesaver)"
  analysis: "Long character analyses (sparknotes, cliffsnotes, shmoop)"
  summary: "Plot summaries (all sites)"

inputs:
  book_list: "TSV with Id or BookId, Title, Author, Url columns"
  splits: "train.tsv, val.tsv, test.tsv with a BookId column"

commands:
  list_guides: |
    litchar catalog --site litcharts --save-path data

  collect: |
    litchar collect --data-file data/books.tsv --save-path data --kind description

  collect_archived: |
    # Wayback captures newer than the cutoff are replaced by older ones
    litchar collect --data-file data/archived.tsv --save-path data --kind analysis --snapshot-cutoff 20240101000000

  debug_one_url: |
    litchar scrape --url https://www.sparknotes.com/lit/emma/ --kind description --format yaml

  review_failures: |
    litchar runs
    litchar failures --latest
    litchar failures --run 3 --export data/retry.tsv
    litchar collect --data-file data/retry.tsv --save-path data --kind description

  build_splits: |
    litchar split --dataset data/description/description_data.jsonl --split-dir data/splits --save-path data/final
    litchar filter --dataset data/final/train.jsonl --field description --min-tokens 20 --language en --save-path data/final

  books: |
    litchar books --data-file data/gutenberg.tsv --save-path data/books

  eval: |
    # LITCHAR_API_KEY may be set in .env
    litchar eval --config configs/eval.yaml

  finetune_data: |
    litchar finetune --config configs/train.yaml

outputs:
  records: "<save>/<kind>/<kind>_data.jsonl (one JSON object per line, flushed per book)"
  ledger: "<save>/<kind>_written.tsv (rows already done; skipped on restart)"
  manifest: "<save>/summary-<kind>-<date>.json"
  history: "<save>/litchar.db (runs, failures, fetches)"
  experiments: "<save_path>/exp_<n>/{config.yaml,preds.jsonl}"

exit_codes:
  0: "every row succeeded"
  1: "some rows failed or the run was interrupted"
  2: "fatal error"
`
