package codegen

const classSource = `<?php

declare(strict_types=1);
{{if .Namespace}}
namespace {{.Namespace}};
{{end}}
/**
 * Data access for the {{.Table}} table.
 *
 * Generated by sqlcraft. Values are always bound as named parameters.
 */
class {{.Class}}
{
    public const TABLE = {{php .Table}};

    public const COLUMNS = [{{range $i, $c := .Columns}}{{if $i}}, {{end}}{{php $c}}{{end}}];
{{- if .PrimaryKey}}

    public const PRIMARY_KEY = [{{range $i, $c := .PrimaryKey}}{{if $i}}, {{end}}{{php $c}}{{end}}];
{{- end}}

    private \PDO $pdo;

    public function __construct(\PDO $pdo)
    {
        $this->pdo = $pdo;
        $this->pdo->setAttribute(\PDO::ATTR_ERRMODE, \PDO::ERRMODE_EXCEPTION);
    }
{{- if .PrimaryKey}}

    /**
     * @param {{if .Composite}}array<string, mixed>{{else}}mixed{{end}} $key
     */
    public function find($key): ?array
    {
        $stmt = $this->pdo->prepare('SELECT * FROM {{.QTable}} WHERE {{.KeyWhere}} LIMIT 1');
        $stmt->execute($this->keyParams($key));
        $row = $stmt->fetch(\PDO::FETCH_ASSOC);
        return $row === false ? null : $row;
    }
{{- end}}

    public function all(int $limit = 100, int $offset = 0): array
    {
        $stmt = $this->pdo->prepare('SELECT * FROM {{.QTable}} LIMIT :limit OFFSET :offset');
        $stmt->bindValue(':limit', $limit, \PDO::PARAM_INT);
        $stmt->bindValue(':offset', $offset, \PDO::PARAM_INT);
        $stmt->execute();
        return $stmt->fetchAll(\PDO::FETCH_ASSOC);
    }

    public function insert(array $data): string
    {
        $data = $this->known($data);
        if ($data === []) {
            throw new \InvalidArgumentException('insert requires at least one column of ' . self::TABLE);
        }
        $columns = [];
        $params = [];
        foreach ($data as $column => $value) {
            $columns[] = $this->quote($column);
            $params[':v' . $this->param($column)] = $value;
        }
        $sql = 'INSERT INTO {{.QTable}} (' . implode(', ', $columns) . ') VALUES (' . implode(', ', array_keys($params)) . ')';
        $this->pdo->prepare($sql)->execute($params);
        return $this->pdo->lastInsertId();
    }
{{- if .PrimaryKey}}

    public function update($key, array $data): int
    {
        [$set, $params] = $this->assignments($data);
        $stmt = $this->pdo->prepare('UPDATE {{.QTable}} SET ' . $set . ' WHERE {{.KeyWhere}}');
        $stmt->execute(array_merge($params, $this->keyParams($key)));
        return $stmt->rowCount();
    }

    public function delete($key): int
    {
        $stmt = $this->pdo->prepare('DELETE FROM {{.QTable}} WHERE {{.KeyWhere}}');
        $stmt->execute($this->keyParams($key));
        return $stmt->rowCount();
    }
{{- end}}

    /**
     * Updates every row matching all conditions (column => value, null
     * matches IS NULL). An empty condition set is refused.
     */
    public function updateWhere(array $data, array $conditions): int
    {
        if ($conditions === []) {
            throw new \InvalidArgumentException('updateWhere requires at least one condition');
        }
        [$set, $params] = $this->assignments($data);
        [$where, $whereParams] = $this->where($conditions);
        $stmt = $this->pdo->prepare('UPDATE {{.QTable}} SET ' . $set . ' WHERE ' . $where);
        $stmt->execute(array_merge($params, $whereParams));
        return $stmt->rowCount();
    }

    /**
     * Deletes every row matching all conditions. An empty condition set is
     * refused.
     */
    public function deleteWhere(array $conditions): int
    {
        if ($conditions === []) {
            throw new \InvalidArgumentException('deleteWhere requires at least one condition');
        }
        [$where, $params] = $this->where($conditions);
        $stmt = $this->pdo->prepare('DELETE FROM {{.QTable}} WHERE ' . $where);
        $stmt->execute($params);
        return $stmt->rowCount();
    }

    private function assignments(array $data): array
    {
        $data = $this->known($data);
        if ($data === []) {
            throw new \InvalidArgumentException('update requires at least one column of ' . self::TABLE);
        }
        $set = [];
        $params = [];
        foreach ($data as $column => $value) {
            $name = ':v' . $this->param($column);
            $set[] = $this->quote($column) . ' = ' . $name;
            $params[$name] = $value;
        }
        return [implode(', ', $set), $params];
    }

    private function where(array $conditions): array
    {
        $known = $this->known($conditions);
        if (count($known) !== count($conditions)) {
            throw new \InvalidArgumentException('unknown condition column for ' . self::TABLE);
        }
        $parts = [];
        $params = [];
        foreach ($known as $column => $value) {
            if ($value === null) {
                $parts[] = $this->quote($column) . ' IS NULL';
                continue;
            }
            $name = ':w' . $this->param($column);
            $parts[] = $this->quote($column) . ' = ' . $name;
            $params[$name] = $value;
        }
        return [implode(' AND ', $parts), $params];
    }
{{- if .PrimaryKey}}

    private function keyParams($key): array
    {
        if (!is_array($key)) {
            if (count(self::PRIMARY_KEY) !== 1) {
                throw new \InvalidArgumentException('composite key requires a value per column');
            }
            $key = [self::PRIMARY_KEY[0] => $key];
        }
        $params = [];
        foreach (self::PRIMARY_KEY as $column) {
            if (!array_key_exists($column, $key)) {
                throw new \InvalidArgumentException('missing key column ' . $column);
            }
            $params[':pk' . $this->param($column)] = $key[$column];
        }
        return $params;
    }
{{- end}}

    private function known(array $data): array
    {
        return array_intersect_key($data, array_flip(self::COLUMNS));
    }

    private function quote(string $column): string
    {
        return '` + "`" + `' . str_replace('` + "`" + `', '` + "``" + `', $column) . '` + "`" + `';
    }

    private function param(string $column): string
    {
        if (preg_match('/^[A-Za-z0-9_]+$/', $column) === 1) {
            return '_' . $column;
        }
        return (string) array_search($column, self::COLUMNS, true);
    }
}
`
